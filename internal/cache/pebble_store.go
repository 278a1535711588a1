package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"rare-source/internal/models"

	"github.com/cockroachdb/pebble"
)

const pebbleKeyPrefix = "entry/"

// PebbleStore keeps cache entries in a local PebbleDB directory. Keys are
// "entry/<hex(PART)>/<created-nanos zero-padded>" so an in-order scan of a
// part's prefix yields entries oldest-first and the newest sits at the
// prefix end. The part number is hex encoded so keys stay within
// [0-9a-f] and a raw "/" or a high byte in a part number cannot bleed
// one part's range into another's.
type PebbleStore struct {
	db *pebble.DB

	// Touch is a read-modify-write; serialize it so concurrent hits on
	// the same entry cannot lose counter increments.
	touchMu sync.Mutex
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func pebbleKey(partNumber string, createdAt time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", pebbleKeyPrefix, hex.EncodeToString([]byte(partNumber)), createdAt.UnixNano()))
}

func pebblePartBounds(partNumber string) (lower, upper []byte) {
	prefix := pebbleKeyPrefix + hex.EncodeToString([]byte(partNumber)) + "/"
	return []byte(prefix), []byte(prefix + "~")
}

func (p *PebbleStore) Insert(ctx context.Context, entry *models.SearchCache) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache entry encode failed: %w", err)
	}
	if err := p.db.Set(pebbleKey(entry.PartNumber, entry.CreatedAt), value, pebble.Sync); err != nil {
		return fmt.Errorf("cache insert failed: %w", err)
	}
	return nil
}

func (p *PebbleStore) Latest(ctx context.Context, partNumber string, now time.Time) (*models.SearchCache, error) {
	lower, upper := pebblePartBounds(partNumber)
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("cache iterator failed: %w", err)
	}
	defer iter.Close()

	// Walk newest to oldest until a live entry shows up.
	for ok := iter.Last(); ok; ok = iter.Prev() {
		var entry models.SearchCache
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			return nil, fmt.Errorf("cache entry decode failed: %w", err)
		}
		if now.Before(entry.ExpiresAt) {
			return &entry, nil
		}
	}
	return nil, nil
}

func (p *PebbleStore) Touch(ctx context.Context, entry *models.SearchCache, at time.Time) error {
	p.touchMu.Lock()
	defer p.touchMu.Unlock()

	key := pebbleKey(entry.PartNumber, entry.CreatedAt)
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache touch read failed: %w", err)
	}

	var stored models.SearchCache
	decodeErr := json.Unmarshal(value, &stored)
	_ = closer.Close()
	if decodeErr != nil {
		return fmt.Errorf("cache touch decode failed: %w", decodeErr)
	}

	stored.SearchCount++
	stored.LastAccessedAt = at
	updated, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("cache touch encode failed: %w", err)
	}
	if err := p.db.Set(key, updated, pebble.NoSync); err != nil {
		return fmt.Errorf("cache touch write failed: %w", err)
	}
	return nil
}

func (p *PebbleStore) DeleteByPart(ctx context.Context, partNumber string) error {
	lower, upper := pebblePartBounds(partNumber)
	if err := p.db.DeleteRange(lower, upper, pebble.Sync); err != nil {
		return fmt.Errorf("cache invalidation failed: %w", err)
	}
	return nil
}

func (p *PebbleStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pebbleKeyPrefix),
		UpperBound: []byte(pebbleKeyPrefix + "~"),
	})
	if err != nil {
		return 0, fmt.Errorf("cache iterator failed: %w", err)
	}

	var expired [][]byte
	for ok := iter.First(); ok; ok = iter.Next() {
		var entry models.SearchCache
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			continue
		}
		if !now.Before(entry.ExpiresAt) {
			key := make([]byte, len(iter.Key()))
			copy(key, iter.Key())
			expired = append(expired, key)
		}
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("cache iterator close failed: %w", err)
	}

	batch := p.db.NewBatch()
	for _, key := range expired {
		if err := batch.Delete(key, nil); err != nil {
			return 0, fmt.Errorf("cache cleanup failed: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("cache cleanup commit failed: %w", err)
	}
	return int64(len(expired)), nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }
