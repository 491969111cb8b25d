package main

import (
	"context"
	"time"

	"github.com/haven-social/warden/rulemod"
)

// how long recorded events stay available for batch re-evaluation
const eventRetention = 7 * 24 * time.Hour

// Re-evaluates the recent event window against batch-frequency rules. Runs
// from cron: hourly rules see the last hour of events, daily rules the last
// day.
func (s *Server) runBatchPass(freq rulemod.TriggerFrequency) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	until := time.Now().UTC()
	var since time.Time
	switch freq {
	case rulemod.FreqBatchHourly:
		since = until.Add(-1 * time.Hour)
	case rulemod.FreqBatchDaily:
		since = until.Add(-24 * time.Hour)
	default:
		return
	}

	events, err := s.events.ListWindow(ctx, since, until)
	if err != nil {
		s.logger.Error("batch pass: listing events failed", "freq", freq, "err", err)
		return
	}
	if len(events) == 0 {
		s.logger.Info("batch pass: no events in window", "freq", freq)
		return
	}

	results, err := s.engine.ProcessBatch(ctx, events, freq)
	if err != nil {
		s.logger.Error("batch pass failed", "freq", freq, "err", err)
		return
	}
	actions := 0
	for _, res := range results {
		actions += len(res.Executed)
	}
	s.logger.Info("batch pass complete", "freq", freq, "events", len(events), "actions", actions)

	if freq == rulemod.FreqBatchDaily {
		removed, err := s.events.TrimBefore(ctx, until.Add(-eventRetention))
		if err != nil {
			s.logger.Warn("trimming old events failed", "err", err)
		} else if removed > 0 {
			s.logger.Info("trimmed old events", "removed", removed)
		}
	}
}
