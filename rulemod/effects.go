package rulemod

import (
	"context"

	"github.com/haven-social/warden/rulemod/countstore"
)

type counterRef struct {
	Name   string
	Val    string
	Period string // empty means all periods
}

type counterDistinctRef struct {
	Name   string
	Bucket string
	Val    string
}

// Counter side effects collected during event processing and persisted in
// bulk after the decision, so the evaluation path itself stays read-only.
type effects struct {
	counterIncrements         []counterRef
	counterDistinctIncrements []counterDistinctRef
}

func (e *effects) increment(name, val string) {
	e.counterIncrements = append(e.counterIncrements, counterRef{Name: name, Val: val})
}

func (e *effects) incrementDistinct(name, bucket, val string) {
	e.counterDistinctIncrements = append(e.counterDistinctIncrements, counterDistinctRef{Name: name, Bucket: bucket, Val: val})
}

func (e *effects) persist(ctx context.Context, counters countstore.CountStore) error {
	if counters == nil {
		return nil
	}
	for _, ref := range e.counterIncrements {
		if ref.Period != "" {
			if err := counters.IncrementPeriod(ctx, ref.Name, ref.Val, ref.Period); err != nil {
				return err
			}
			continue
		}
		if err := counters.Increment(ctx, ref.Name, ref.Val); err != nil {
			return err
		}
	}
	for _, ref := range e.counterDistinctIncrements {
		if err := counters.IncrementDistinct(ctx, ref.Name, ref.Bucket, ref.Val); err != nil {
			return err
		}
	}
	return nil
}

// Activity counters for the event itself, which feed the user_history
// fields on later evaluations.
func (e *effects) recordEventActivity(evt *ModerationEvent) {
	if evt.UserID == "" {
		return
	}
	switch evt.Type {
	case EventContentPosted:
		e.increment(countstore.NamePostsCreated, evt.UserID)
	case EventContentReported:
		e.increment(countstore.NameReportsReceived, evt.UserID)
		if evt.ContentID != "" {
			e.incrementDistinct(countstore.NameReportsReceived, evt.UserID, evt.ContentID)
		}
	}
}
