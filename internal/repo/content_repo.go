// Package repo implements the data persistence layer for the SQLite content
// backend. This file provides repository functions for the ContentRecord
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a record is not found (or is not published), functions return
//     ErrNotFound.
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience.
var ErrNotFound = gorm.ErrRecordNotFound

// ListPublished returns the published records of one kind, newest first with
// ties broken by key.
func ListPublished(ctx context.Context, db *gorm.DB, kind domain.Kind) ([]domain.ContentRecord, error) {
	var out []domain.ContentRecord
	err := db.WithContext(ctx).
		Where("kind = ? AND status = ?", string(kind), domain.StatusPublished).
		Order("published_at DESC").Order("key ASC").
		Find(&out).Error
	return out, err
}

// GetPublished fetches a single published record by kind and key, or
// ErrNotFound.
func GetPublished(ctx context.Context, db *gorm.DB, kind domain.Kind, key string) (*domain.ContentRecord, error) {
	var rec domain.ContentRecord
	err := db.WithContext(ctx).
		Where("kind = ? AND key = ? AND status = ?", string(kind), key, domain.StatusPublished).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertContent inserts rec or, when (kind, key) already exists, overwrites
// its mutable columns.
func UpsertContent(ctx context.Context, db *gorm.DB, rec *domain.ContentRecord) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "title", "summary", "tags", "tech_stack", "author",
			"role", "body", "blocks", "published_at", "updated_at", "deleted_at",
		}),
	}).Create(rec).Error
}

// SetStatus moves a record through its lifecycle (draft, review, published).
func SetStatus(ctx context.Context, db *gorm.DB, kind domain.Kind, key, status string) error {
	res := db.WithContext(ctx).Model(&domain.ContentRecord{}).
		Where("kind = ? AND key = ?", string(kind), key).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PublishedStats returns the number of published records of kind and the
// newest publication date among them. When there are none, latest is nil.
func PublishedStats(ctx context.Context, db *gorm.DB, kind domain.Kind) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ContentRecord{}).
		Where("kind = ? AND status = ?", string(kind), domain.StatusPublished)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest published_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		PublishedAt time.Time
	}
	if err = q.Select("published_at").Order("published_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.PublishedAt, nil
}
