// Command bidwatch scrapes Philippine government procurement notices and
// awarded contracts into SQLite, and serves a small HTTP API for
// triggering runs and querying the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidintel/bidwatch/scrape"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		runKind    = flag.String("run", "", "execute one run and exit: notices | awards")
		serve      = flag.Bool("serve", false, "serve the HTTP API (and the daily schedule, if enabled)")
		workers    = flag.Int("workers", 0, "override worker count")
		startPage  = flag.Int("start-page", 0, "listing page to start from")
		maxPages   = flag.Int("pages", 0, "max listing pages to walk (0 = all)")
		headful    = flag.Bool("headful", false, "run the browser with a visible window")
		refresh    = flag.Bool("force-refresh", false, "re-extract records that are already stored")
		logLevel   = flag.String("log-level", "info", "debug | info | warn | error")
	)
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	s, err := scrape.New(cfg, logger)
	if err != nil {
		logger.Error("init", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	switch {
	case *runKind != "":
		opts := scrape.RunOptions{
			Kind:         scrape.RunKind(*runKind),
			Workers:      *workers,
			StartPage:    *startPage,
			MaxPages:     *maxPages,
			Headful:      *headful,
			ForceRefresh: *refresh,
		}
		summary, err := s.Run(ctx, opts)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		if summary != nil && summary.Blocked {
			os.Exit(2)
		}
	case *serve:
		if err := serveAPI(ctx, cfg, s, logger); err != nil {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "nothing to do: pass -run notices|awards or -serve")
		flag.Usage()
		os.Exit(2)
	}
}

func loadConfig(path string) (*scrape.Config, error) {
	if path == "" {
		return scrape.DefaultConfig(), nil
	}
	return scrape.LoadFile(path)
}

func serveAPI(ctx context.Context, cfg *scrape.Config, s *scrape.Scraper, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Schedule.Enabled {
		go func() {
			err := s.RunDaily(ctx, scrape.RunOptions{Kind: scrape.KindAwards})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.API.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
