package rulemod

import (
	"context"
	"log/slog"
	"time"

	"github.com/haven-social/warden/rulemod/auditlog"
	"github.com/haven-social/warden/rulemod/countstore"
	"github.com/haven-social/warden/rulemod/flagstore"
	"github.com/haven-social/warden/rulemod/platform"
	"github.com/haven-social/warden/rulemod/setstore"
)

// Provider of the current active-rule snapshot. Implemented by
// rulestore.Cache; returns nil when no snapshot has ever been loaded.
type SnapshotSource interface {
	Current() *Snapshot
}

// Runtime for evaluating moderation rules against incoming events and
// executing the resulting enforcement actions.
//
// Evaluation (resolve, match, schedule) is pure and parallel-safe; all side
// effects happen in the executor and the post-decision counter flush.
type Engine struct {
	Logger   *slog.Logger
	Rules    SnapshotSource
	Counters countstore.CountStore
	Sets     setstore.SetStore
	Flags    flagstore.FlagStore
	Platform platform.Client
	Audit    auditlog.Store
	Notifier Notifier
	// injectable for tests; defaults to time.Now
	Clock func() time.Time
}

// Outcome of one evaluation call. Never persisted verbatim; the audit trail
// keeps the per-action records and the canonical log line keeps the summary.
type EvaluationResult struct {
	EventID       string          `json:"eventId"`
	EventType     TriggerEvent    `json:"eventType"`
	ContentID     string          `json:"contentId,omitempty"`
	UserID        string          `json:"userId,omitempty"`
	Allowed       bool            `json:"allowed"`
	WinningRuleID string          `json:"winningRuleId,omitempty"`
	Outcomes      []RuleOutcome   `json:"outcomes"`
	Executed      []ActionOutcome `json:"executed,omitempty"`
	Reasons       []string        `json:"reasons,omitempty"`
	Elapsed       time.Duration   `json:"elapsedNs"`
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Engine) resolver() *Resolver {
	return &Resolver{Counters: e.Counters, Logger: e.Logger}
}

func (e *Engine) scheduler() *Scheduler {
	return &Scheduler{Sets: e.Sets, Logger: e.Logger}
}

func (e *Engine) executor() *Executor {
	return &Executor{
		Logger:   e.Logger,
		Platform: e.Platform,
		Flags:    e.Flags,
		Counters: e.Counters,
		Audit:    e.Audit,
		Notifier: e.Notifier,
	}
}

// Evaluates an event against the immediate-frequency rules and executes the
// decision. This is the synchronous call on the content-submission path.
func (e *Engine) ProcessEvent(ctx context.Context, evt *ModerationEvent) (res *EvaluationResult, err error) {
	// similar to an HTTP server, we want to recover any panics from rule evaluation
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("moderation event processing exception", "err", r, "event", evt.ID, "type", evt.Type)
			eventErrorCount.WithLabelValues(string(evt.Type)).Inc()
			res = e.failOpen(evt, time.Duration(0))
		}
	}()
	return e.process(ctx, evt, FreqImmediate)
}

// Evaluates a window of recorded events against batch-frequency rules. Used
// by the hourly/daily scheduled passes; not latency-sensitive.
func (e *Engine) ProcessBatch(ctx context.Context, events []*ModerationEvent, freq TriggerFrequency) ([]*EvaluationResult, error) {
	results := make([]*EvaluationResult, 0, len(events))
	for _, evt := range events {
		res, err := e.process(ctx, evt, freq)
		if err != nil {
			e.Logger.Error("batch event processing failed", "event", evt.ID, "err", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) process(ctx context.Context, evt *ModerationEvent, freq TriggerFrequency) (*EvaluationResult, error) {
	start := e.now()
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = start.UTC()
	}
	eventProcessCount.WithLabelValues(string(evt.Type)).Inc()
	defer func() {
		eventProcessDuration.WithLabelValues(string(evt.Type)).Observe(time.Since(start).Seconds())
	}()

	snap := e.Rules.Current()
	if snap == nil {
		// rule store has never been reachable; moderation unavailability
		// fails open for the submission flow
		e.Logger.Error("no rule snapshot available, allowing event", "event", evt.ID, "type", evt.Type)
		failOpenCount.Inc()
		return e.failOpen(evt, e.now().Sub(start)), nil
	}

	var eff effects
	// activity counters record the event itself, not its evaluation: the
	// batch passes re-evaluate recorded events and must not count them again
	if freq == FreqImmediate {
		eff.recordEventActivity(evt)
	}

	ectx := e.resolver().Resolve(ctx, evt)
	decision := e.scheduler().Evaluate(ctx, snap, ectx, freq)

	res := &EvaluationResult{
		EventID:       evt.ID,
		EventType:     evt.Type,
		ContentID:     evt.ContentID,
		UserID:        evt.UserID,
		Allowed:       decision.Allowed(),
		WinningRuleID: decision.WinningRuleID,
		Outcomes:      decision.Outcomes,
		Reasons:       decision.Reasons,
	}
	if len(decision.Planned) > 0 {
		res.Executed = e.executor().Execute(ctx, evt, decision.Planned, decision.Reasons)
	}

	if err := eff.persist(ctx, e.Counters); err != nil {
		// counter loss is tolerable; the decision already stands
		e.Logger.Warn("persisting counters", "event", evt.ID, "err", err)
	}

	res.Elapsed = e.now().Sub(start)
	e.canonicalLogLine(res)
	return res, nil
}

func (e *Engine) failOpen(evt *ModerationEvent, elapsed time.Duration) *EvaluationResult {
	return &EvaluationResult{
		EventID:   evt.ID,
		EventType: evt.Type,
		ContentID: evt.ContentID,
		UserID:    evt.UserID,
		Allowed:   true,
		Reasons:   []string{"rule snapshot unavailable, failing open"},
		Elapsed:   elapsed,
	}
}

func (e *Engine) canonicalLogLine(res *EvaluationResult) {
	matched := 0
	for _, o := range res.Outcomes {
		if o.Matched {
			matched++
		}
	}
	e.Logger.Info("canonical-event-line",
		"event", res.EventID,
		"type", res.EventType,
		"content", res.ContentID,
		"user", res.UserID,
		"allowed", res.Allowed,
		"winner", res.WinningRuleID,
		"rulesEvaluated", len(res.Outcomes),
		"rulesMatched", matched,
		"actionsExecuted", len(res.Executed),
		"elapsed", res.Elapsed,
	)
}
