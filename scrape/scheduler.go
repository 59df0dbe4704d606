package scrape

import (
	"context"
	"errors"
	"time"
)

// RunDaily blocks, executing one run per day at the configured
// hour:minute until the context is cancelled. Failed runs are logged
// and the schedule keeps going; an already-running manual run just
// skips that day's slot.
func (s *Scraper) RunDaily(ctx context.Context, opts RunOptions) error {
	if !s.cfg.Schedule.Enabled {
		return errors.New("scrape: schedule not enabled")
	}

	for {
		next := nextRunTime(time.Now(), s.cfg.Schedule.Hour, s.cfg.Schedule.Minute)
		s.log.Info("scrape: next scheduled run", "at", next.Format(time.RFC3339), "kind", opts.Kind)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.Run(ctx, opts); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.log.Error("scrape: scheduled run failed", "error", err)
		}
	}
}

// nextRunTime returns the next occurrence of hour:minute strictly after
// now, in now's location.
func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
