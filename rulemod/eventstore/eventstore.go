// Package eventstore records incoming moderation events so the scheduled
// batch passes can re-evaluate a time window of them against hourly and daily
// rules. The immediate evaluation path never reads from here.
package eventstore

import (
	"context"
	"time"

	"github.com/haven-social/warden/rulemod"
)

type Store interface {
	Append(ctx context.Context, evt *rulemod.ModerationEvent) error
	// Events with OccurredAt in [since, until), oldest first.
	ListWindow(ctx context.Context, since, until time.Time) ([]*rulemod.ModerationEvent, error)
	// Drops events older than the cutoff; returns how many were removed.
	TrimBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
