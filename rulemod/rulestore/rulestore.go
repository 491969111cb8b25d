// Package rulestore persists moderation rules and serves the engine's active
// rule snapshot. Rules are validated on every write; the engine never reads
// rules directly, only immutable snapshots refreshed by a Cache.
package rulestore

import (
	"context"
	"errors"

	"github.com/haven-social/warden/rulemod"
)

var ErrNotFound = errors.New("rule not found")

type Store interface {
	// Validates and persists a new rule, assigning an id if empty and setting
	// version to 1.
	Create(ctx context.Context, rule *rulemod.ModerationRule) error
	// Validates and replaces an existing rule, bumping its version.
	Update(ctx context.Context, rule *rulemod.ModerationRule) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*rulemod.ModerationRule, error)
	// All rules, active and inactive, in unspecified order.
	List(ctx context.Context) ([]*rulemod.ModerationRule, error)
}
