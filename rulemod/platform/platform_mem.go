package platform

import (
	"context"
	"sync"
	"time"
)

// Record of one call made against the fake platform, for test assertions.
type Call struct {
	Op       string
	TargetID string
	Reason   string
	Severity string
	Assignee string
	Level    int
	Duration time.Duration
}

// In-memory fake used in tests and the simulation fixture. Can be primed to
// fail specific operations.
type MemClient struct {
	mu    sync.Mutex
	calls []Call
	// op name -> error returned for that op
	Fail map[string]error
}

func NewMemClient() *MemClient {
	return &MemClient{Fail: make(map[string]error)}
}

func (c *MemClient) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *MemClient) record(call Call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Fail[call.Op]; err != nil {
		return err
	}
	c.calls = append(c.calls, call)
	return nil
}

func (c *MemClient) BlockContent(ctx context.Context, contentID, reason string) error {
	return c.record(Call{Op: "block", TargetID: contentID, Reason: reason})
}

func (c *MemClient) QueueForReview(ctx context.Context, contentID, severity, reason string) error {
	return c.record(Call{Op: "review", TargetID: contentID, Severity: severity, Reason: reason})
}

func (c *MemClient) WarnUser(ctx context.Context, userID, reason string) error {
	return c.record(Call{Op: "warn", TargetID: userID, Reason: reason})
}

func (c *MemClient) RestrictUser(ctx context.Context, userID string, duration time.Duration, reason string) error {
	return c.record(Call{Op: "restrict", TargetID: userID, Duration: duration, Reason: reason})
}

func (c *MemClient) AssignCase(ctx context.Context, contentID, assignee, reason string) error {
	return c.record(Call{Op: "assign", TargetID: contentID, Assignee: assignee, Reason: reason})
}

func (c *MemClient) EscalateCase(ctx context.Context, contentID string, level int, reason string) error {
	return c.record(Call{Op: "escalate", TargetID: contentID, Level: level, Reason: reason})
}
