package notify

import (
	"strings"
	"testing"

	"github.com/bidintel/bidwatch/scrape/internal/store"
)

func TestEnabled(t *testing.T) {
	if New(Config{}, nil).Enabled() {
		t.Error("empty config should be disabled")
	}
	if !New(Config{Host: "smtp.example.ph", To: []string{"ops@example.ph"}}, nil).Enabled() {
		t.Error("host + recipient should be enabled")
	}
}

func TestRunFinishedDisabledIsNoop(t *testing.T) {
	n := New(Config{}, nil)
	if err := n.RunFinished(&store.RunLog{Kind: "awards"}); err != nil {
		t.Errorf("disabled notifier errored: %v", err)
	}
}

func TestSummaryFormatting(t *testing.T) {
	r := &store.RunLog{
		Kind:       "awards",
		StartedAt:  1764927000000,
		DurationMs: 95000,
		Attempted:  120,
		NewRecords: 80,
		Skipped:    35,
		Errors:     5,
		Success:    true,
		Notes:      "2 workers",
	}

	subj := summarySubject(r)
	if !strings.Contains(subj, "awards") || !strings.Contains(subj, "completed") {
		t.Errorf("subject = %q", subj)
	}

	body := summaryBody(r)
	for _, want := range []string{"Attempted: 120", "New:       80", "Skipped:   35", "Errors:    5", "2 workers", "1m35s"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	r.Success = false
	if !strings.Contains(summarySubject(r), "FAILED") {
		t.Error("failed run not flagged in subject")
	}
}
