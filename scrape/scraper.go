// Package scrape drives the procurement scraping pipeline: walk the
// portal's paginated listings, fan detail pages out to browser workers,
// extract structured records, and persist them with de-duplication.
package scrape

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bidintel/bidwatch/dbopen"
	"github.com/bidintel/bidwatch/scrape/internal/browser"
	"github.com/bidintel/bidwatch/scrape/internal/extract"
	"github.com/bidintel/bidwatch/scrape/internal/fetcher"
	"github.com/bidintel/bidwatch/scrape/internal/index"
	"github.com/bidintel/bidwatch/scrape/internal/notify"
	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// ErrRunInProgress means Run was called while another run holds the
// browser.
var ErrRunInProgress = errors.New("scrape: run already in progress")

// pageFetcher is the slice of fetcher.Fetcher the coordinator depends
// on; runs under test swap in fakes.
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Scraper coordinates runs against one database. Safe for concurrent
// API use; at most one run executes at a time.
type Scraper struct {
	cfg      *Config
	log      *slog.Logger
	db       *sql.DB
	store    *store.Store
	notifier *notify.Notifier

	// newFetchers provisions one fetcher per worker plus a teardown.
	// Swapped by tests to avoid launching Chrome.
	newFetchers func(opts RunOptions) ([]pageFetcher, func(), error)

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	status  Status
}

// New opens the database and builds a Scraper.
func New(cfg *Config, log *slog.Logger) (*Scraper, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg.applyDefaults()

	db, err := dbopen.Open(cfg.Database, dbopen.WithMkdirAll(), dbopen.WithSchema(store.Schema))
	if err != nil {
		return nil, fmt.Errorf("scrape: open database: %w", err)
	}

	s := &Scraper{
		cfg:      cfg,
		log:      log,
		db:       db,
		store:    store.NewStore(db),
		notifier: notify.New(cfg.notifyConfig(), log),
	}
	s.newFetchers = s.browserFetchers
	return s, nil
}

// Store exposes the record store for the query API.
func (s *Scraper) Store() *store.Store { return s.store }

// Close releases the database.
func (s *Scraper) Close() error { return s.db.Close() }

// Status returns a snapshot of the current or most recent run.
func (s *Scraper) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stop requests a cooperative stop of the current run, if any. Workers
// see the signal between items, never mid-navigation: the in-flight
// fetch completes, its record is stored, and the run winds down with
// its summary written.
func (s *Scraper) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stop == nil {
		return false
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return true
}

func (s *Scraper) stopRequested() bool {
	s.mu.Lock()
	ch := s.stop
	s.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Run executes one scraping run and blocks until it finishes. The
// summary is persisted to run_log on every exit path, cancellation
// included.
func (s *Scraper) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	if !opts.Kind.valid() {
		return nil, fmt.Errorf("scrape: unknown run kind %q", opts.Kind)
	}
	s.applyRunDefaults(&opts)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.stop = make(chan struct{})
	s.status = Status{Running: true, Kind: opts.Kind, StartedAt: time.Now()}
	s.mu.Unlock()

	summary := &RunSummary{Kind: opts.Kind, StartedAt: time.Now()}
	defer func() {
		summary.EndedAt = time.Now()
		s.mu.Lock()
		s.running = false
		s.stop = nil
		s.status.Running = false
		s.mu.Unlock()
		s.finishRun(ctx, opts, summary)
	}()

	fetchers, teardown, err := s.newFetchers(opts)
	if err != nil {
		summary.Errors++
		return summary, err
	}
	defer teardown()

	err = s.walk(ctx, opts, fetchers, summary)
	if err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}
	return summary, nil
}

func (s *Scraper) applyRunDefaults(opts *RunOptions) {
	if opts.Workers <= 0 {
		opts.Workers = s.cfg.Run.Workers
	}
	if opts.StartPage <= 0 {
		opts.StartPage = s.cfg.Run.StartPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = s.cfg.Run.MaxPages
	}
}

// walk pages the listing index sequentially, dispatching each page's
// rows to the worker pool.
func (s *Scraper) walk(ctx context.Context, opts RunOptions, fetchers []pageFetcher, summary *RunSummary) error {
	filters := s.cfg.indexFilters()
	pager := fetchers[0]

	totalPages := 0
	for page := opts.StartPage; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.stopRequested() {
			s.log.Info("scrape: stop requested, ending run", "page", page)
			return nil
		}
		if totalPages > 0 && page > totalPages {
			return nil
		}

		var pageURL string
		if opts.Kind == KindAwards {
			pageURL = index.AwardPageURL(s.cfg.BaseURL, page, filters)
		} else {
			pageURL = index.NoticePageURL(s.cfg.BaseURL, page, filters)
		}

		html, err := pager.Fetch(ctx, pageURL)
		if err != nil {
			if errors.Is(err, fetcher.ErrBlocked) {
				summary.Blocked = true
				return err
			}
			s.log.Error("scrape: listing fetch failed", "page", page, "error", err)
			summary.Errors++
			return err
		}

		if totalPages == 0 {
			totalPages = index.PageCount(html)
			if opts.MaxPages > 0 {
				if capped := opts.StartPage + opts.MaxPages - 1; totalPages > capped {
					totalPages = capped
				}
			}
			s.setStatus(func(st *Status) { st.PageCount = totalPages })
		}

		items := s.listItems(opts.Kind, html)
		if len(items) == 0 {
			// The paginator over-promises near the tail; an empty page
			// means the listing is exhausted.
			s.log.Info("scrape: empty listing page, stopping", "page", page)
			return nil
		}

		summary.Pages++
		s.setStatus(func(st *Status) { st.Page = page })
		s.log.Info("scrape: page", "kind", opts.Kind, "page", page, "of", totalPages, "items", len(items))

		if err := s.processPage(ctx, opts, fetchers, items, summary); err != nil {
			return err
		}
	}
}

// workItem is one listing row to resolve into a stored record.
type workItem struct {
	key    string
	url    string
	notice *index.NoticeRow
	award  *index.AwardRow
}

func (s *Scraper) listItems(kind RunKind, html string) []workItem {
	var items []workItem
	if kind == KindAwards {
		for _, row := range index.ParseAwards(html, s.cfg.BaseURL) {
			r := row
			items = append(items, workItem{key: r.AwardNoticeNumber, url: r.URL, award: &r})
		}
		return items
	}
	for _, row := range index.ParseNotices(html, s.cfg.BaseURL) {
		r := row
		items = append(items, workItem{key: r.ReferenceNumber, url: r.URL, notice: &r})
	}
	return items
}

type counters struct {
	attempted, newRecords, skipped, errors int
	blocked                                bool
}

// processPage splits one page's items round-robin across the workers
// and aggregates their counters after the join. A blocked worker
// cancels the page for everyone.
func (s *Scraper) processPage(ctx context.Context, opts RunOptions, fetchers []pageFetcher, items []workItem, summary *RunSummary) error {
	pageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := opts.Workers
	if workers > len(fetchers) {
		workers = len(fetchers)
	}

	batches := make([][]workItem, workers)
	for i, it := range items {
		w := i % workers
		batches[w] = append(batches[w], it)
	}

	results := make([]counters, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		if len(batches[w]) == 0 {
			continue
		}
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w] = s.runWorker(pageCtx, opts, fetchers[w], batches[w], cancel)
		}(w)
	}
	wg.Wait()

	blocked := false
	for _, c := range results {
		summary.Attempted += c.attempted
		summary.New += c.newRecords
		summary.Skipped += c.skipped
		summary.Errors += c.errors
		blocked = blocked || c.blocked
	}
	s.setStatus(func(st *Status) {
		st.Attempted = summary.Attempted
		st.New = summary.New
		st.Skipped = summary.Skipped
		st.Errors = summary.Errors
	})

	if blocked {
		summary.Blocked = true
		return fetcher.ErrBlocked
	}
	return ctx.Err()
}

// runWorker resolves its batch sequentially on one fetcher (one tab).
// Item failures isolate; a block signal cancels the whole page. The
// stop signal is honored only between items so an in-flight navigation
// always completes.
func (s *Scraper) runWorker(ctx context.Context, opts RunOptions, f pageFetcher, items []workItem, abort context.CancelFunc) counters {
	var c counters
	for _, it := range items {
		if ctx.Err() != nil || s.stopRequested() {
			return c
		}
		c.attempted++

		outcome, err := s.processItem(ctx, opts, f, it)
		switch {
		case errors.Is(err, fetcher.ErrBlocked):
			c.blocked = true
			c.errors++
			s.log.Error("scrape: blocked, aborting run", "key", it.key)
			abort()
			return c
		case err != nil:
			c.errors++
			s.log.Warn("scrape: item failed", "key", it.key, "error", err)
		case outcome == outcomeSkipped:
			c.skipped++
		default:
			c.newRecords++
		}
	}
	return c
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeSkipped
)

// processItem is the per-record pipeline: exists check, detail fetch,
// extraction with listing-row fallback, upsert.
func (s *Scraper) processItem(ctx context.Context, opts RunOptions, f pageFetcher, it workItem) (outcome, error) {
	if !opts.ForceRefresh {
		exists, err := s.itemExists(ctx, opts.Kind, it.key)
		if err != nil {
			return 0, err
		}
		if exists {
			return outcomeSkipped, nil
		}
	}

	html, err := f.Fetch(ctx, it.url)
	if err != nil {
		return 0, err
	}

	if opts.Kind == KindAwards {
		a, err := extract.ExtractAward(html, it.url)
		if err != nil {
			return 0, err
		}
		prefillAward(a, it.award)
		if err := s.store.UpsertAward(ctx, a); err != nil {
			return 0, err
		}
		return outcomeNew, nil
	}

	n, err := extract.ExtractNotice(html, it.url)
	if err != nil {
		return 0, err
	}
	prefillNotice(n, it.notice)
	if err := s.store.UpsertNotice(ctx, n); err != nil {
		return 0, err
	}
	return outcomeNew, nil
}

func (s *Scraper) itemExists(ctx context.Context, kind RunKind, key string) (bool, error) {
	if kind == KindAwards {
		return s.store.AwardExists(ctx, key)
	}
	return s.store.NoticeExists(ctx, key)
}

// prefillAward backfills detail fields the page failed to yield with
// the coarse values the listing row already carried.
func prefillAward(a *store.Award, row *index.AwardRow) {
	if row == nil {
		return
	}
	if a.BidReferenceNumber == "" {
		a.BidReferenceNumber = row.BidReferenceNumber
	}
	if a.AwardTitle == "" {
		a.AwardTitle = row.Title
	}
	if a.AwardeeName == "" {
		a.AwardeeName = row.Awardee
	}
	if a.AwardDate == nil {
		a.AwardDate = row.AwardDate
	}
}

func prefillNotice(n *store.Notice, row *index.NoticeRow) {
	if row == nil {
		return
	}
	if n.Title == "" {
		n.Title = row.Title
	}
	if n.Classification == "" {
		n.Classification = row.Classification
	}
	if n.ProcuringEntity == "" {
		n.ProcuringEntity = row.ProcuringEntity
	}
	if n.Status == "" || n.Status == "Published" {
		if row.Status != "" {
			n.Status = row.Status
		}
	}
	if n.PublishDate == nil {
		n.PublishDate = row.PublishDate
	}
	if n.ClosingDate == nil {
		n.ClosingDate = row.ClosingDate
	}
}

func (s *Scraper) setStatus(mut func(*Status)) {
	s.mu.Lock()
	mut(&s.status)
	s.mu.Unlock()
}

// finishRun persists the run_log row and sends the summary email. It
// uses a context detached from the run's so a cancelled run still gets
// its row.
func (s *Scraper) finishRun(ctx context.Context, opts RunOptions, summary *RunSummary) {
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	notes := fmt.Sprintf("%d workers, %d pages", opts.Workers, summary.Pages)
	if summary.Blocked {
		notes += ", aborted: blocked"
	}
	r := &store.RunLog{
		Kind:       string(opts.Kind),
		StartedAt:  summary.StartedAt.UnixMilli(),
		EndedAt:    summary.EndedAt.UnixMilli(),
		Attempted:  summary.Attempted,
		NewRecords: summary.New,
		Skipped:    summary.Skipped,
		Errors:     summary.Errors,
		Success:    summary.Success(),
		Notes:      notes,
	}
	if err := s.store.InsertRunLog(logCtx, r); err != nil {
		s.log.Error("scrape: run log write failed", "error", err)
	}

	if err := s.notifier.RunFinished(r); err != nil {
		s.log.Warn("scrape: notification failed", "error", err)
	}

	s.log.Info("scrape: run finished",
		"kind", opts.Kind, "pages", summary.Pages,
		"attempted", summary.Attempted, "new", summary.New,
		"skipped", summary.Skipped, "errors", summary.Errors,
		"blocked", summary.Blocked,
		"duration", summary.EndedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}

// browserFetchers launches Chrome and provisions one stealth tab per
// worker.
func (s *Scraper) browserFetchers(opts RunOptions) ([]pageFetcher, func(), error) {
	mgr := browser.NewManager(browser.Config{
		RemoteURL:   s.cfg.Browser.Remote,
		Headless:    !s.cfg.Browser.Headful && !opts.Headful,
		UserDataDir: s.cfg.Browser.UserDataDir,
		Logger:      s.log,
	})
	if err := mgr.Start(); err != nil {
		return nil, func() {}, err
	}

	detector := fetcher.NewDetector(s.cfg.Blocking.BlockMarkers, s.cfg.Blocking.NotFoundMarkers)
	fcfg := fetcher.Config{
		BaseDelay:  s.cfg.Run.delay(),
		Timeout:    s.cfg.Run.timeout(),
		MaxRetries: s.cfg.Run.MaxRetries,
		Detector:   detector,
		Logger:     s.log,
	}

	fetchers := make([]pageFetcher, 0, opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		tab, err := mgr.NewTab()
		if err != nil {
			mgr.Close()
			return nil, func() {}, err
		}
		fetchers = append(fetchers, fetcher.New(tab, fcfg))
	}
	return fetchers, func() { mgr.Close() }, nil
}
