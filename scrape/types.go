package scrape

import "time"

// RunKind selects which pipeline a run walks.
type RunKind string

const (
	KindNotices RunKind = "notices"
	KindAwards  RunKind = "awards"
)

func (k RunKind) valid() bool {
	return k == KindNotices || k == KindAwards
}

// RunOptions parametrises one run. Zero values fall back to the
// Config's run section.
type RunOptions struct {
	Kind      RunKind `json:"kind"`
	Workers   int     `json:"workers"`
	StartPage int     `json:"start_page"`
	MaxPages  int     `json:"max_pages"`

	// Headful opens a visible browser for this run only.
	Headful bool `json:"headful"`

	// ForceRefresh re-extracts records whose natural key is already
	// stored instead of skipping them.
	ForceRefresh bool `json:"force_refresh"`
}

// RunSummary is the outcome of one run.
type RunSummary struct {
	Kind      RunKind   `json:"kind"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Pages     int       `json:"pages"`
	Attempted int       `json:"attempted"`
	New       int       `json:"new"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`

	// Blocked means the portal refused a worker and the run aborted
	// early.
	Blocked bool `json:"blocked"`
}

// Success is the run_log success criterion: the run finished without
// being blocked and with fewer errors than successes.
func (s *RunSummary) Success() bool {
	return !s.Blocked && s.Errors <= s.New+s.Skipped
}

// Status is a point-in-time snapshot of the current (or last) run,
// readable while the run progresses.
type Status struct {
	Running   bool      `json:"running"`
	Kind      RunKind   `json:"kind,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Page      int       `json:"page"`
	PageCount int       `json:"page_count"`
	Attempted int       `json:"attempted"`
	New       int       `json:"new"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
}
