package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchByMMSI(t *testing.T) {
	svc := newTestService(errFetcher{})
	results := svc.Search(context.Background(), "566934000")

	require.Len(t, results, 1)
	require.Equal(t, "HY EMERALD", results[0].Name)
}

func TestSearchByName(t *testing.T) {
	svc := newTestService(errFetcher{})
	results := svc.Search(context.Background(), "emerald")

	require.Len(t, results, 1)
	require.Equal(t, "9676307", results[0].IMO)
}

func TestSearchUnknownMMSIDoesNotInventIMO(t *testing.T) {
	svc := newTestService(errFetcher{})
	results := svc.Search(context.Background(), "563099800")

	require.Len(t, results, 1)
	require.True(t, results[0].Synthetic)
	require.Empty(t, results[0].IMO, "a nine-digit query must not yield a seven-digit IMO window")
}

func TestSearchMultipleResultsOrderedByIMO(t *testing.T) {
	svc := newTestService(errFetcher{})

	for i := 0; i < 5; i++ {
		results := svc.Search(context.Background(), "a")
		require.Len(t, results, 3)
		require.Equal(t, "9434140", results[0].IMO)
		require.Equal(t, "9525338", results[1].IMO)
		require.Equal(t, "9676307", results[2].IMO)
	}
}

func TestSearchUnknownQueryYieldsSynthetic(t *testing.T) {
	svc := newTestService(errFetcher{})
	results := svc.Search(context.Background(), "flying dutchman")

	require.Len(t, results, 1)
	require.Equal(t, "FLYING DUTCHMAN", results[0].Name)
	require.True(t, results[0].Synthetic)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(errFetcher{})
	require.Empty(t, svc.Search(context.Background(), "   "))
}
