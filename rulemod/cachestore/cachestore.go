// Package cachestore is a small generic TTL cache. The simulation endpoint
// uses it to memoize analyzer responses by content hash, so repeated dry
// runs of the same text don't re-bill the analyzer.
package cachestore

import (
	"context"
)

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}
