// Package countstore tracks period-bucketed activity counters: posts created
// and reports received per user (which back the user_history catalog
// fields), enforcement totals, and the action executor's daily quota circuit
// breakers.
package countstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

// Well-known counter namespaces used across the engine.
const (
	NamePostsCreated    = "posts-created"
	NameReportsReceived = "reports-received"
	NameViolations      = "violations"
	NameQuota           = "quota"
)

type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	// Increments all period buckets for the counter.
	Increment(ctx context.Context, name, val string) error
	// Increments only the indicated period bucket.
	IncrementPeriod(ctx context.Context, name, val, period string) error
	// Estimated count of distinct string values seen in the bucket/period.
	GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error)
	IncrementDistinct(ctx context.Context, name, bucket, val string) error
}

func periodBucket(name, val, period string) string {
	switch period {
	case PeriodTotal:
		return fmt.Sprintf("%s/%s", name, val)
	case PeriodDay:
		t := time.Now().UTC().Format(time.DateOnly)
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	case PeriodHour:
		t := time.Now().UTC().Format(time.RFC3339)[0:13]
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	default:
		slog.Warn("unhandled counter period", "period", period)
		return fmt.Sprintf("%s/%s", name, val)
	}
}
