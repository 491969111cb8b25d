// Package flagstore records private moderation flags set by the flag action.
// Flags are like labels but internal-only: they feed dashboards and later
// rule passes, and are never shown to users.
package flagstore

import (
	"context"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}

// Key for a flag subject, eg "content/abc123" or "user/u42".
func SubjectKey(kind, id string) string {
	return kind + "/" + id
}
