package rulemod

import (
	"context"
	"log/slog"

	"github.com/haven-social/warden/rulemod/setstore"
)

// An action the engine intends to execute (or, in simulation, would
// execute), tagged with the rule that produced it.
type PlannedAction struct {
	RuleID   string     `json:"ruleId"`
	RuleName string     `json:"ruleName"`
	Action   RuleAction `json:"action"`
}

// The scheduler's verdict for one event against one rule snapshot.
type Decision struct {
	// every rule evaluated for the event, in evaluation order
	Outcomes []RuleOutcome `json:"outcomes"`
	// id of the authoritative rule; empty means no rule matched ("allow")
	WinningRuleID string `json:"winningRuleId,omitempty"`
	// the winner's actions plus notify actions from every other matched rule
	Planned []PlannedAction `json:"planned,omitempty"`
	Reasons []string        `json:"reasons,omitempty"`
}

func (d *Decision) Allowed() bool {
	return d.WinningRuleID == ""
}

// Scheduler selects and orders the rules that apply to an event and folds
// multiple matches into one decision: the highest-priority matched rule's
// actions are authoritative, all other matched rules are recorded for audit
// only — except their notify actions, which all fire so lower-priority
// alerts are never silently suppressed.
type Scheduler struct {
	Sets   setstore.SetStore
	Logger *slog.Logger
}

// Evaluates every active rule in the snapshot matching the event's trigger
// and the given frequency. The snapshot is already in evaluation order
// (priority descending, creation order ascending), so the first match wins.
func (s *Scheduler) Evaluate(ctx context.Context, snap *Snapshot, ectx *EvaluationContext, freq TriggerFrequency) *Decision {
	decision := &Decision{}
	rules := snap.RulesFor(ectx.Event.Type, freq)

	var winner *RuleOutcome
	var notifies []PlannedAction
	for _, rule := range rules {
		outcome := matchRule(ctx, rule, ectx, s.Sets)
		decision.Outcomes = append(decision.Outcomes, outcome)
		idx := len(decision.Outcomes) - 1
		if !outcome.Matched {
			continue
		}
		ruleMatchCount.WithLabelValues(rule.Name).Inc()

		if winner == nil {
			winner = &decision.Outcomes[idx]
			winner.Authoritative = true
			decision.WinningRuleID = rule.ID
			decision.Reasons = append(decision.Reasons, winner.MatchReasons()...)
			for _, a := range rule.Actions {
				decision.Planned = append(decision.Planned, PlannedAction{RuleID: rule.ID, RuleName: rule.Name, Action: a})
			}
			continue
		}

		// matched but not authoritative: only notify actions survive
		for _, a := range rule.Actions {
			if a.Type == ActionNotify {
				notifies = append(notifies, PlannedAction{RuleID: rule.ID, RuleName: rule.Name, Action: a})
			}
		}
	}
	decision.Planned = append(decision.Planned, notifies...)

	if s.Logger != nil && winner != nil {
		s.Logger.Debug("rule decision",
			"event", ectx.Event.ID,
			"winner", decision.WinningRuleID,
			"matched", len(decision.Planned),
		)
	}
	return decision
}
