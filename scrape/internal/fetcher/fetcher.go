// Package fetcher acquires rendered portal pages through a Rod stealth
// tab. Every fetch is paced with human-like jitter and retried with
// exponential backoff when the failure is transient; challenge pages and
// dead links are classified into typed errors so the caller can decide
// between aborting the run and skipping the record.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-rod/rod"
)

// Config configures a Fetcher.
type Config struct {
	// BaseDelay is the pacing unit; each navigation waits a random
	// [0.8, 1.5] multiple of it first. Default: 2s.
	BaseDelay time.Duration

	// Timeout bounds a single navigation attempt. Default: 30s.
	Timeout time.Duration

	// MaxRetries bounds retry attempts after the first try. Default: 3.
	MaxRetries int

	// Detector classifies responses. Default: NewDetector(nil, nil).
	Detector *Detector

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseDelay <= 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Detector == nil {
		c.Detector = NewDetector(nil, nil)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Fetcher owns one browser tab. It is not safe for concurrent use; the
// worker pool gives each worker its own Fetcher.
type Fetcher struct {
	cfg  Config
	page *rod.Page
	rng  *rand.Rand

	// nav performs one navigation attempt; split out so retry and
	// classification logic is testable without a browser.
	nav func(ctx context.Context, url string) (string, error)
}

// New creates a Fetcher around an existing stealth page.
func New(page *rod.Page, cfg Config) *Fetcher {
	cfg.defaults()
	f := &Fetcher{
		cfg:  cfg,
		page: page,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	f.nav = f.rodNavigate
	return f
}

// Fetch navigates to a URL and returns the rendered HTML. Transient
// failures and timeouts are retried with exponential backoff up to
// MaxRetries; ErrBlocked and ErrNotFound surface immediately.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	var html string

	op := func() error {
		if err := f.jitter(ctx); err != nil {
			return backoff.Permanent(err)
		}

		out, err := f.nav(ctx, pageURL)
		if err != nil {
			if !Transient(err) {
				return backoff.Permanent(err)
			}
			f.cfg.Logger.Warn("fetcher: retryable failure", "url", pageURL, "error", err)
			return err
		}

		if cerr := f.cfg.Detector.Classify(out); cerr != nil {
			return backoff.Permanent(cerr)
		}
		html = out
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("fetcher: fetch %s: %w", pageURL, err)
	}
	return html, nil
}

// jitter sleeps a random [0.8, 1.5] multiple of BaseDelay, or returns
// early when the context is cancelled.
func (f *Fetcher) jitter(ctx context.Context) error {
	mult := 0.8 + f.rng.Float64()*0.7
	d := time.Duration(mult * float64(f.cfg.BaseDelay))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) rodNavigate(ctx context.Context, pageURL string) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	page := f.page.Context(navCtx)
	if err := page.Navigate(pageURL); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, pageURL)
		}
		return "", fmt.Errorf("fetcher: navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		// The portal sometimes keeps a spinner request open past the
		// load event; the DOM is still usable.
		f.cfg.Logger.Warn("fetcher: wait load", "url", pageURL, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, pageURL)
		}
		return "", fmt.Errorf("fetcher: read html: %w", err)
	}
	return html, nil
}
