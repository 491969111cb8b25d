// Package platform is the engine's client for the enforcement surfaces of
// the surrounding platform: content state changes, user restriction records,
// and the human moderation queue. The engine computes decisions; this
// package carries them out.
package platform

import (
	"context"
	"fmt"
	"time"
)

type Client interface {
	// content target
	BlockContent(ctx context.Context, contentID, reason string) error
	QueueForReview(ctx context.Context, contentID, severity, reason string) error

	// user target
	WarnUser(ctx context.Context, userID, reason string) error
	RestrictUser(ctx context.Context, userID string, duration time.Duration, reason string) error

	// moderator target
	AssignCase(ctx context.Context, contentID, assignee, reason string) error
	EscalateCase(ctx context.Context, contentID string, level int, reason string) error
}

// Non-2xx response from the platform API. 4xx statuses are permanent (the
// target is already in a terminal state, or the request is malformed) and
// must not be retried.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("platform %s failed: HTTP %d", e.Op, e.Code)
}

func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500
}
