package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bidintel/bidwatch/dbopen"
	"github.com/bidintel/bidwatch/scrape/internal/fetcher"
	"github.com/bidintel/bidwatch/scrape/internal/index"
	"github.com/bidintel/bidwatch/scrape/internal/notify"
	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// fakeFetcher serves canned HTML by URL, recording every fetch.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	calls []string

	// onFetch, when set, runs inside Fetch before the canned response
	// is returned.
	onFetch func(ctx context.Context, url string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.onFetch != nil {
		f.onFetch(ctx, url)
	}
	if err, ok := f.fail[url]; ok {
		return "", err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no canned page for %s", url)
	}
	return html, nil
}

func (f *fakeFetcher) fetched(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

func testScraper(t *testing.T, fake *fakeFetcher) *Scraper {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))
	cfg := DefaultConfig()

	s := &Scraper{
		cfg:   cfg,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		db:    db,
		store: store.NewStore(db),
	}
	s.notifier = notify.New(notify.Config{}, s.log)
	s.newFetchers = func(opts RunOptions) ([]pageFetcher, func(), error) {
		fetchers := make([]pageFetcher, opts.Workers)
		for i := range fetchers {
			fetchers[i] = fake
		}
		return fetchers, func() {}, nil
	}
	return s
}

func awardListingHTML(totalPages int, numbers ...string) string {
	var rows strings.Builder
	for _, num := range numbers {
		fmt.Fprintf(&rows, `<tr>
			<td><a href="/Indexes/viewAwardNotice/%s/MORE">%s</a></td>
			<td>REF-%s</td><td>Title %s</td><td>Supplier %s</td><td>05-Dec-2025</td>
		</tr>`, num, num, num, num, num)
	}
	return fmt.Sprintf(`<html><body><table><tbody>%s</tbody></table>
		<div class="paginator"><p>Page 1 of %d</p></div></body></html>`, rows.String(), totalPages)
}

func awardDetailHTML(num string) string {
	return fmt.Sprintf(`<html><body>
		<label>Award Notice Number :%s</label>
		<label>Notice Reference Number :REF-%s</label>
		<center class="verdhana_fourteenpx"><b>Detail Title %s</b></center>
		<label>Awardee Name: </label><br>Supplier %s<br>
		<label>Approved Budget of the Contract: </label><br>1,000,000.00<br>
		<label>Contract Amount: </label><br>900,000.00<br>
		<label>Award Date: </label><br>05-Dec-2025<br>
		</body></html>`, num, num, num, num)
}

func detailURL(num string) string {
	return "https://philgeps.gov.ph/Indexes/viewAwardNotice/" + num + "/MORE"
}

func newAwardFake(numbers ...string) *fakeFetcher {
	fake := &fakeFetcher{pages: map[string]string{}, fail: map[string]error{}}
	fake.pages[index.AwardPageURL("https://philgeps.gov.ph", 1, index.Filters{})] = awardListingHTML(1, numbers...)
	for _, num := range numbers {
		fake.pages[detailURL(num)] = awardDetailHTML(num)
	}
	return fake
}

func TestRunAwards(t *testing.T) {
	fake := newAwardFake("AW-1", "AW-2", "AW-3")
	s := testScraper(t, fake)
	ctx := context.Background()

	summary, err := s.Run(ctx, RunOptions{Kind: KindAwards, Workers: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.New != 3 || summary.Skipped != 0 || summary.Errors != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Pages != 1 {
		t.Errorf("pages = %d, want 1", summary.Pages)
	}

	a, err := s.store.GetAward(ctx, "AW-2")
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("AW-2 not stored")
	}
	if a.AwardeeName != "Supplier AW-2" {
		t.Errorf("awardee = %q", a.AwardeeName)
	}
	if a.ContractAmount == nil || *a.ContractAmount != 900000 {
		t.Errorf("contract amount = %v", a.ContractAmount)
	}

	// One run_log row, marked successful.
	logs, err := s.store.RecentRunLogs(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("run logs = %d, want 1", len(logs))
	}
	if !logs[0].Success || logs[0].NewRecords != 3 {
		t.Errorf("run log = %+v", logs[0])
	}

	if s.Status().Running {
		t.Error("still marked running after completion")
	}
}

func TestRunSkipsExisting(t *testing.T) {
	fake := newAwardFake("AW-1", "AW-2", "AW-3")
	s := testScraper(t, fake)
	ctx := context.Background()

	if err := s.store.UpsertAward(ctx, &store.Award{AwardNoticeNumber: "AW-2"}); err != nil {
		t.Fatal(err)
	}

	summary, err := s.Run(ctx, RunOptions{Kind: KindAwards, Workers: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.New != 2 || summary.Skipped != 1 {
		t.Errorf("new/skipped = %d/%d, want 2/1", summary.New, summary.Skipped)
	}
	// The skip must short-circuit before any fetch.
	if fake.fetched(detailURL("AW-2")) {
		t.Error("existing record's detail page was fetched")
	}
}

func TestRunForceRefresh(t *testing.T) {
	fake := newAwardFake("AW-1", "AW-2")
	s := testScraper(t, fake)
	ctx := context.Background()

	if err := s.store.UpsertAward(ctx, &store.Award{AwardNoticeNumber: "AW-1", AwardeeName: "stale"}); err != nil {
		t.Fatal(err)
	}

	summary, err := s.Run(ctx, RunOptions{Kind: KindAwards, Workers: 1, ForceRefresh: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Skipped != 0 || summary.New != 2 {
		t.Errorf("summary = %+v", summary)
	}

	a, err := s.store.GetAward(ctx, "AW-1")
	if err != nil {
		t.Fatal(err)
	}
	if a.AwardeeName != "Supplier AW-1" {
		t.Errorf("awardee = %q, want refreshed value", a.AwardeeName)
	}
}

func TestRunIsolatesItemErrors(t *testing.T) {
	fake := newAwardFake("AW-1", "AW-2", "AW-3")
	fake.fail[detailURL("AW-2")] = errors.New("detail fetch exploded")
	s := testScraper(t, fake)

	summary, err := s.Run(context.Background(), RunOptions{Kind: KindAwards, Workers: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.New != 2 || summary.Errors != 1 {
		t.Errorf("new/errors = %d/%d, want 2/1", summary.New, summary.Errors)
	}
}

func TestRunBlockedAborts(t *testing.T) {
	fake := newAwardFake("AW-1", "AW-2", "AW-3")
	fake.fail[detailURL("AW-1")] = fetcher.ErrBlocked
	s := testScraper(t, fake)
	ctx := context.Background()

	summary, err := s.Run(ctx, RunOptions{Kind: KindAwards, Workers: 1})
	if !errors.Is(err, fetcher.ErrBlocked) {
		t.Fatalf("err = %v, want ErrBlocked", err)
	}
	if !summary.Blocked {
		t.Error("summary not marked blocked")
	}
	// Worker 1 hits the wall on its first item; nothing else is fetched.
	if fake.fetched(detailURL("AW-2")) || fake.fetched(detailURL("AW-3")) {
		t.Error("run continued after block")
	}

	logs, err := s.store.RecentRunLogs(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Success {
		t.Errorf("blocked run must log an unsuccessful row, got %+v", logs)
	}
}

func TestRunRejectsBadKind(t *testing.T) {
	s := testScraper(t, newAwardFake())
	if _, err := s.Run(context.Background(), RunOptions{Kind: "everything"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRunInProgressGuard(t *testing.T) {
	s := testScraper(t, newAwardFake("AW-1"))
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	if _, err := s.Run(context.Background(), RunOptions{Kind: KindAwards}); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
}

func TestStopFinishesInFlightFetch(t *testing.T) {
	fake := newAwardFake("AW-1", "AW-2", "AW-3")
	s := testScraper(t, fake)

	started := make(chan struct{})
	release := make(chan struct{})
	var inFlightErr error
	fake.onFetch = func(ctx context.Context, url string) {
		if url != detailURL("AW-1") {
			return
		}
		close(started)
		<-release
		// The navigation must outlive Stop untouched.
		inFlightErr = ctx.Err()
	}

	done := make(chan struct{})
	var summary *RunSummary
	var runErr error
	go func() {
		defer close(done)
		summary, runErr = s.Run(context.Background(), RunOptions{Kind: KindAwards, Workers: 1})
	}()

	<-started
	if !s.Stop() {
		t.Error("Stop returned false for a running run")
	}
	close(release)
	<-done

	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	if inFlightErr != nil {
		t.Errorf("in-flight fetch context = %v, want still live", inFlightErr)
	}
	// The interrupted item completes and is stored; later items are
	// never fetched.
	if summary.New != 1 {
		t.Errorf("new = %d, want 1", summary.New)
	}
	if fake.fetched(detailURL("AW-2")) || fake.fetched(detailURL("AW-3")) {
		t.Error("items fetched after stop")
	}

	a, err := s.store.GetAward(context.Background(), "AW-1")
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Error("in-flight record not stored")
	}
}

func TestStopWithoutRun(t *testing.T) {
	s := testScraper(t, newAwardFake())
	if s.Stop() {
		t.Error("Stop returned true with no run in progress")
	}
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	// Paginator promises 5 pages; page 2 is empty, so the walk stops.
	fake := newAwardFake("AW-1")
	fake.pages[index.AwardPageURL("https://philgeps.gov.ph", 1, index.Filters{})] = awardListingHTML(5, "AW-1")
	fake.pages[index.AwardPageURL("https://philgeps.gov.ph", 2, index.Filters{})] =
		`<html><body><table><tbody></tbody></table></body></html>`
	s := testScraper(t, fake)

	summary, err := s.Run(context.Background(), RunOptions{Kind: KindAwards, Workers: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Pages != 1 || summary.New != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestAPIStatusAndValidation(t *testing.T) {
	s := testScraper(t, newAwardFake())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d", resp.StatusCode)
	}

	resp2, err := http.Post(srv.URL+"/api/runs", "application/json",
		strings.NewReader(`{"kind":"everything"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("bad kind code = %d, want 400", resp2.StatusCode)
	}

	resp3, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Errorf("stats code = %d", resp3.StatusCode)
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestNextRunTime(t *testing.T) {
	now := mustParse(t, "2025-12-05T10:30:00Z")

	next := nextRunTime(now, 11, 0)
	if next.Day() != 5 || next.Hour() != 11 {
		t.Errorf("same-day slot = %v", next)
	}
	next = nextRunTime(now, 6, 0)
	if next.Day() != 6 || next.Hour() != 6 {
		t.Errorf("next-day slot = %v", next)
	}
}
