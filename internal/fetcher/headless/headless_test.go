package headless

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	require.Equal(t, 3, cfg.Attempts)
	require.Equal(t, 2*time.Second, cfg.RetryBackoff)
	require.Equal(t, 30*time.Second, cfg.NavTimeout)
	require.Equal(t, 10*time.Second, cfg.ReadyWait)
	require.Equal(t, 3*time.Second, cfg.SettleDelay)
}

func TestConfigWithDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{
		Attempts:     1,
		RetryBackoff: time.Second,
		NavTimeout:   5 * time.Second,
		ReadyWait:    time.Second,
		SettleDelay:  time.Millisecond,
	}.withDefaults()

	require.Equal(t, 1, cfg.Attempts)
	require.Equal(t, time.Second, cfg.RetryBackoff)
	require.Equal(t, 5*time.Second, cfg.NavTimeout)
}

func TestJoinSelectors(t *testing.T) {
	require.Equal(t, "#a, .b, .c", joinSelectors([]string{"#a", ".b", ".c"}))
	require.Equal(t, "#vesselMap", joinSelectors([]string{"#vesselMap"}))
}

func TestNoopFetcherAlwaysFails(t *testing.T) {
	_, err := NewNoop().Fetch(context.Background(), "https://example.com/vessels/details/9676307")
	require.Error(t, err)
}

func TestResponseMetaTracksDocumentStatus(t *testing.T) {
	m := newResponseMeta()
	require.Zero(t, m.status())

	// Non-document responses are ignored.
	m.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeImage,
		Response: &network.Response{Status: 404},
	})
	require.Zero(t, m.status())

	m.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 200},
	})
	require.Equal(t, 200, m.status())
}
