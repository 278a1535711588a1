package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rare-source/internal/models"

	"gorm.io/gorm"
)

// GormStore persists cache entries in the search_cache table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.SearchCache{}); err != nil {
		return nil, fmt.Errorf("failed to migrate search_cache: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Insert(ctx context.Context, entry *models.SearchCache) error {
	if err := g.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("cache insert failed: %w", err)
	}
	return nil
}

func (g *GormStore) Latest(ctx context.Context, partNumber string, now time.Time) (*models.SearchCache, error) {
	var entry models.SearchCache
	err := g.db.WithContext(ctx).
		Where("part_number = ? AND expires_at > ?", partNumber, now).
		Order("created_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	return &entry, nil
}

func (g *GormStore) Touch(ctx context.Context, entry *models.SearchCache, at time.Time) error {
	err := g.db.WithContext(ctx).
		Model(&models.SearchCache{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"search_count":     gorm.Expr("search_count + 1"),
			"last_accessed_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("cache touch failed: %w", err)
	}
	return nil
}

func (g *GormStore) DeleteByPart(ctx context.Context, partNumber string) error {
	err := g.db.WithContext(ctx).
		Where("part_number = ?", partNumber).
		Delete(&models.SearchCache{}).Error
	if err != nil {
		return fmt.Errorf("cache invalidation failed: %w", err)
	}
	return nil
}

func (g *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := g.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.SearchCache{})
	if result.Error != nil {
		return 0, fmt.Errorf("cache cleanup failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
