package cache

import (
	"context"
	"sync"
	"time"

	"rare-source/internal/models"
)

// MemoryStore keeps cache entries in process memory. Used when neither a
// database DSN nor a cache directory is configured, and as the store in
// tests. Append-only per key with most-recent-wins reads, mirroring the
// database-backed stores.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]*models.SearchCache
	nextID  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]*models.SearchCache)}
}

func (m *MemoryStore) Insert(ctx context.Context, entry *models.SearchCache) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	entry.ID = m.nextID
	stored := *entry
	m.entries[entry.PartNumber] = append(m.entries[entry.PartNumber], &stored)
	return nil
}

func (m *MemoryStore) Latest(ctx context.Context, partNumber string, now time.Time) (*models.SearchCache, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.entries[partNumber]
	for i := len(rows) - 1; i >= 0; i-- {
		if now.Before(rows[i].ExpiresAt) {
			found := *rows[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Touch(ctx context.Context, entry *models.SearchCache, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.entries[entry.PartNumber] {
		if row.ID == entry.ID {
			row.SearchCount++
			row.LastAccessedAt = at
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) DeleteByPart(ctx context.Context, partNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, partNumber)
	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for part, rows := range m.entries {
		var kept []*models.SearchCache
		for _, row := range rows {
			if now.Before(row.ExpiresAt) {
				kept = append(kept, row)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(m.entries, part)
		} else {
			m.entries[part] = kept
		}
	}
	return removed, nil
}

func (m *MemoryStore) Close() error { return nil }
