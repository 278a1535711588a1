package cache

import (
	"context"
	"time"

	"rare-source/internal/models"
)

// Store is the keyed backing store behind the result cache. Entries are
// insert-only; readers want the most recent non-expired entry per part
// number. Implementations: MySQL via gorm, a local Pebble store, and an
// in-memory store for tests and storeless deployments.
type Store interface {
	Insert(ctx context.Context, entry *models.SearchCache) error

	// Latest returns the newest entry for partNumber whose expiry is
	// after now, or (nil, nil) when no live entry exists.
	Latest(ctx context.Context, partNumber string, now time.Time) (*models.SearchCache, error)

	// Touch bumps the entry's search count and last-accessed time.
	Touch(ctx context.Context, entry *models.SearchCache, at time.Time) error

	// DeleteByPart removes every entry for partNumber, live or expired.
	DeleteByPart(ctx context.Context, partNumber string) error

	// DeleteExpired removes entries past expiry across all keys and
	// returns the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	Close() error
}
