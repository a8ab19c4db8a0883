// Package headless fetches vessel detail pages with a real browser so
// client-side rendered fields are present in the returned content.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleetops/vesselwatch/internal/metrics"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

// ErrFetchFailed indicates navigation was exhausted without a usable page.
var ErrFetchFailed = errors.New("headless: fetch failed")

// Selectors that signal the page's dynamic content has rendered. Any one
// of them appearing ends the content-ready wait early.
var readySelectors = []string{"#vesselMap", ".vessel-subtitle", ".specs-table"}

// Config controls the behavior of the headless fetcher.
type Config struct {
	UserAgent    string
	Attempts     int
	RetryBackoff time.Duration
	NavTimeout   time.Duration
	ReadyWait    time.Duration
	SettleDelay  time.Duration
	MaxParallel  int
	DomainQPS    float64
}

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.ReadyWait <= 0 {
		c.ReadyWait = 10 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 3 * time.Second
	}
	return c
}

// Fetcher implements vessel.Fetcher using chromedp and headless Chrome.
type Fetcher struct {
	cfg         Config
	limiter     chan struct{}
	pace        *rate.Limiter
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// New creates a headless fetcher backed by chromedp. The browser session
// presents a standard desktop user agent and suppresses the usual
// automation-detection signals.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	cfg = cfg.withDefaults()

	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}
	var pace *rate.Limiter
	if cfg.DomainQPS > 0 {
		pace = rate.NewLimiter(rate.Limit(cfg.DomainQPS), 1)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		limiter:     limiter,
		pace:        pace,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context, tearing down the browser.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch navigates to the reference and returns the rendered page, or an
// error wrapping ErrFetchFailed once retries are exhausted. It never
// returns partial content.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (vessel.Page, error) {
	if err := f.acquire(ctx); err != nil {
		return vessel.Page{}, err
	}
	defer f.release()

	if f.pace != nil {
		if err := f.pace.Wait(ctx); err != nil {
			return vessel.Page{}, fmt.Errorf("upstream pacing wait: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
		if attempt > 1 {
			metrics.FetchRetries.Inc()
			select {
			case <-time.After(f.cfg.RetryBackoff):
			case <-ctx.Done():
				return vessel.Page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
			}
		}

		page, err := f.fetchOnce(ctx, ref)
		if err == nil {
			return page, nil
		}
		lastErr = err
		f.logger.Warn("navigation attempt failed",
			zap.String("ref", ref),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return vessel.Page{}, fmt.Errorf("%w: %s after %d attempts: %v",
		ErrFetchFailed, ref, f.cfg.Attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, ref string) (vessel.Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocator)
	defer cancelTab()

	stopForward := forwardCancel(ctx, cancelTab)
	defer stopForward()

	taskCtx, cancel := context.WithTimeout(tabCtx, f.cfg.NavTimeout)
	defer cancel()

	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	start := time.Now()

	// Navigate waiting only for initial content load; full network idle
	// on a map-heavy page would blow the latency budget.
	if err := chromedp.Run(taskCtx,
		f.sessionSetup(),
		chromedp.Navigate(ref),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return vessel.Page{}, fmt.Errorf("navigate: %w", err)
	}
	if status := meta.status(); status >= 400 {
		return vessel.Page{}, fmt.Errorf("upstream status %d", status)
	}

	f.awaitContentReady(taskCtx)

	var html string
	if err := chromedp.Run(taskCtx,
		chromedp.Sleep(f.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return vessel.Page{}, fmt.Errorf("snapshot dom: %w", err)
	}

	status := meta.status()
	if status == 0 {
		status = 200
	}
	return vessel.Page{
		URL:        ref,
		StatusCode: status,
		Body:       []byte(html),
		Duration:   time.Since(start),
	}, nil
}

// awaitContentReady waits, bounded, for any known content-ready signal.
// A timeout here is not an error: the settle delay plus extraction's
// per-field tolerance handle partially rendered pages.
func (f *Fetcher) awaitContentReady(ctx context.Context) {
	readyCtx, cancel := context.WithTimeout(ctx, f.cfg.ReadyWait)
	defer cancel()

	script := "document.querySelector('" + joinSelectors(readySelectors) + "') !== null"
	if err := chromedp.Run(readyCtx, chromedp.Poll(script, nil)); err != nil {
		f.logger.Debug("content-ready wait elapsed", zap.Error(err))
	}
}

func joinSelectors(selectors []string) string {
	out := ""
	for i, s := range selectors {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func (f *Fetcher) sessionSetup() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	select {
	case f.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (f *Fetcher) release() {
	if f.limiter == nil {
		return
	}
	select {
	case <-f.limiter:
	default:
	}
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
