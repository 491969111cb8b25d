package rulestore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/haven-social/warden/rulemod"
)

// Cache holds the engine-facing snapshot of the rule set, refreshed from the
// backing store on an interval and swapped atomically. Readers on the hot
// path never touch the store; a reload failure keeps the previous snapshot
// serving (stale rules beat no rules).
type Cache struct {
	Store    Store
	Logger   *slog.Logger
	Interval time.Duration

	current atomic.Pointer[rulemod.Snapshot]
}

func NewCache(store Store, logger *slog.Logger, interval time.Duration) *Cache {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Cache{
		Store:    store,
		Logger:   logger,
		Interval: interval,
	}
}

// The active snapshot, or nil if no load has ever succeeded.
func (c *Cache) Current() *rulemod.Snapshot {
	return c.current.Load()
}

// Rebuilds the snapshot from the store and swaps it in.
func (c *Cache) Reload(ctx context.Context) error {
	rules, err := c.Store.List(ctx)
	if err != nil {
		return err
	}
	snap := rulemod.NewSnapshot(rules, time.Now().UTC())
	prev := c.current.Swap(snap)
	if prev == nil || prev.Version != snap.Version {
		c.Logger.Info("rule snapshot loaded", "version", snap.Version, "rules", len(snap.Rules))
	}
	return nil
}

// Periodic reload loop; blocks until ctx is cancelled. The initial load
// happens inline so callers can treat a returning Run as shutdown.
func (c *Cache) Run(ctx context.Context) error {
	if err := c.Reload(ctx); err != nil {
		c.Logger.Error("initial rule snapshot load failed", "err", err)
	}
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Reload(ctx); err != nil {
				c.Logger.Warn("rule snapshot reload failed, keeping previous", "err", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
