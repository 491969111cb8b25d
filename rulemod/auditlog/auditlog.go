// Package auditlog is the append-only trail of enforcement activity. Every
// executed action, successful or not, lands here with enough context to
// reconstruct why the engine did what it did.
package auditlog

import (
	"context"
	"time"
)

type Record struct {
	ID       string
	EventID  string
	RuleID   string
	Action   string
	Target   string
	TargetID string
	// "ok", "failed", or "skipped_quota"
	Outcome   string
	Detail    string
	Attempts  int
	CreatedAt time.Time
}

const (
	OutcomeOK           = "ok"
	OutcomeFailed       = "failed"
	OutcomeSkippedQuota = "skipped_quota"
)

type Store interface {
	Append(ctx context.Context, rec Record) error
	ListByEvent(ctx context.Context, eventID string) ([]Record, error)
}
