package rulemod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/haven-social/warden/rulemod/auditlog"
	"github.com/haven-social/warden/rulemod/countstore"
	"github.com/haven-social/warden/rulemod/flagstore"
	"github.com/haven-social/warden/rulemod/platform"
)

var (
	// number of content blocks the engine may execute per day, for all
	// subjects combined (circuit breaker)
	QuotaBlockDay = 50
	// number of user restrictions the engine may execute per day (circuit
	// breaker)
	QuotaRestrictDay = 25
)

// Result of one action execution attempt chain.
type ActionOutcome struct {
	RuleID   string     `json:"ruleId"`
	Action   RuleAction `json:"action"`
	TargetID string     `json:"targetId"`
	OK       bool       `json:"ok"`
	Error    string     `json:"error,omitempty"`
	Attempts int        `json:"attempts"`
}

// Executor carries out planned actions against their target systems.
// Actions are independent side effects, not a transaction: one failure is
// recorded and the remaining actions still run. Transient failures are
// retried with bounded exponential backoff before being marked failed.
type Executor struct {
	Logger   *slog.Logger
	Platform platform.Client
	Flags    flagstore.FlagStore
	Counters countstore.CountStore
	Audit    auditlog.Store
	Notifier Notifier

	// retry bounds for one action; zero values get defaults
	MaxRetries      int
	InitialInterval time.Duration
}

// Runs every planned action in declared order and appends an audit record
// per action.
func (x *Executor) Execute(ctx context.Context, evt *ModerationEvent, planned []PlannedAction, reasons []string) []ActionOutcome {
	outcomes := make([]ActionOutcome, 0, len(planned))
	for i := range planned {
		outcomes = append(outcomes, x.executeOne(ctx, evt, &planned[i], reasons))
	}
	return outcomes
}

func (x *Executor) executeOne(ctx context.Context, evt *ModerationEvent, pa *PlannedAction, reasons []string) ActionOutcome {
	out := ActionOutcome{
		RuleID:   pa.RuleID,
		Action:   pa.Action,
		TargetID: targetID(evt, &pa.Action),
	}

	if skipped, quota := x.overQuota(ctx, pa.Action.Type); skipped {
		x.Logger.Warn("CIRCUIT BREAKER: daily action quota reached", "action", pa.Action.Type, "quota", quota)
		quotaTripCount.WithLabelValues(string(pa.Action.Type)).Inc()
		out.Error = fmt.Sprintf("daily %s quota (%d) reached", pa.Action.Type, quota)
		x.appendAudit(ctx, evt, pa, &out, auditlog.OutcomeSkippedQuota)
		actionExecCount.WithLabelValues(string(pa.Action.Type), auditlog.OutcomeSkippedQuota).Inc()
		return out
	}

	op := func() error {
		out.Attempts++
		err := x.dispatch(ctx, evt, pa, reasons)
		if err == nil {
			return nil
		}
		var se *platform.StatusError
		if errors.As(err, &se) && se.Permanent() {
			return backoff.Permanent(err)
		}
		actionRetryCount.WithLabelValues(string(pa.Action.Type)).Inc()
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(x.newBackoff(), ctx))
	if err != nil {
		out.Error = err.Error()
		x.Logger.Error("action execution failed", "rule", pa.RuleID, "action", pa.Action.String(), "target", out.TargetID, "attempts", out.Attempts, "err", err)
		x.appendAudit(ctx, evt, pa, &out, auditlog.OutcomeFailed)
		actionExecCount.WithLabelValues(string(pa.Action.Type), auditlog.OutcomeFailed).Inc()
		return out
	}

	out.OK = true
	x.recordEnforcement(ctx, evt, pa)
	x.appendAudit(ctx, evt, pa, &out, auditlog.OutcomeOK)
	actionExecCount.WithLabelValues(string(pa.Action.Type), auditlog.OutcomeOK).Inc()
	return out
}

func (x *Executor) dispatch(ctx context.Context, evt *ModerationEvent, pa *PlannedAction, reasons []string) error {
	params := pa.Action.Parameters
	reason := params.Reason
	if reason == "" {
		reason = "rule: " + pa.RuleName
	}
	severity := params.Severity
	if severity == "" {
		severity = "medium"
	}

	switch pa.Action.Type {
	case ActionBlock:
		return x.Platform.BlockContent(ctx, evt.ContentID, reason)
	case ActionReview:
		return x.Platform.QueueForReview(ctx, evt.ContentID, severity, reason)
	case ActionWarn:
		return x.Platform.WarnUser(ctx, evt.UserID, reason)
	case ActionRestrict:
		return x.Platform.RestrictUser(ctx, evt.UserID, time.Duration(params.DurationHours)*time.Hour, reason)
	case ActionAssign:
		return x.Platform.AssignCase(ctx, evt.ContentID, params.Assignee, reason)
	case ActionEscalate:
		return x.Platform.EscalateCase(ctx, evt.ContentID, params.EscalationLevel, reason)
	case ActionFlag:
		key := flagstore.SubjectKey(string(pa.Action.Target), targetID(evt, &pa.Action))
		return x.Flags.Add(ctx, key, []string{severity + "/" + reason})
	case ActionNotify:
		return x.Notifier.SendNotification(ctx, notificationBody(evt, pa, reasons))
	}
	return fmt.Errorf("unsupported action type: %s", pa.Action.Type)
}

// Daily quota check for the heavyweight enforcement actions. Counter reads
// failing open: a broken countstore should not block enforcement entirely.
func (x *Executor) overQuota(ctx context.Context, t ActionType) (bool, int) {
	var quota int
	switch t {
	case ActionBlock:
		quota = QuotaBlockDay
	case ActionRestrict:
		quota = QuotaRestrictDay
	default:
		return false, 0
	}
	if x.Counters == nil {
		return false, quota
	}
	n, err := x.Counters.GetCount(ctx, countstore.NameQuota, string(t), countstore.PeriodDay)
	if err != nil {
		x.Logger.Warn("quota counter read failed", "action", t, "err", err)
		return false, quota
	}
	return n >= quota, quota
}

// Post-success bookkeeping: quota consumption and the violation counter
// behind user_history.violations_total.
func (x *Executor) recordEnforcement(ctx context.Context, evt *ModerationEvent, pa *PlannedAction) {
	if x.Counters == nil {
		return
	}
	switch pa.Action.Type {
	case ActionBlock, ActionRestrict:
		if err := x.Counters.IncrementPeriod(ctx, countstore.NameQuota, string(pa.Action.Type), countstore.PeriodDay); err != nil {
			x.Logger.Warn("quota counter increment failed", "action", pa.Action.Type, "err", err)
		}
		if evt.UserID != "" {
			if err := x.Counters.Increment(ctx, countstore.NameViolations, evt.UserID); err != nil {
				x.Logger.Warn("violation counter increment failed", "user", evt.UserID, "err", err)
			}
		}
	}
}

func (x *Executor) appendAudit(ctx context.Context, evt *ModerationEvent, pa *PlannedAction, out *ActionOutcome, outcome string) {
	if x.Audit == nil {
		return
	}
	rec := auditlog.Record{
		ID:        uuid.NewString(),
		EventID:   evt.ID,
		RuleID:    pa.RuleID,
		Action:    string(pa.Action.Type),
		Target:    string(pa.Action.Target),
		TargetID:  out.TargetID,
		Outcome:   outcome,
		Detail:    out.Error,
		Attempts:  out.Attempts,
		CreatedAt: time.Now().UTC(),
	}
	if err := x.Audit.Append(ctx, rec); err != nil {
		x.Logger.Error("appending audit record", "rule", pa.RuleID, "action", pa.Action.Type, "err", err)
	}
}

func (x *Executor) newBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if x.InitialInterval > 0 {
		bo.InitialInterval = x.InitialInterval
	} else {
		bo.InitialInterval = 250 * time.Millisecond
	}
	maxRetries := x.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return backoff.WithMaxRetries(bo, uint64(maxRetries))
}

func targetID(evt *ModerationEvent, a *RuleAction) string {
	switch a.Target {
	case TargetContent:
		return evt.ContentID
	case TargetUser:
		return evt.UserID
	case TargetModerator:
		if a.Parameters.Assignee != "" {
			return a.Parameters.Assignee
		}
		return "moderation-queue"
	}
	return ""
}
