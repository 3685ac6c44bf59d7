package content

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

// SQLiteSource serves published content_records rows through GORM.
type SQLiteSource struct {
	DB *gorm.DB
}

// NewSQLiteSource returns a source over db. The schema must already exist
// (see repo.AutoMigrate).
func NewSQLiteSource(db *gorm.DB) *SQLiteSource {
	return &SQLiteSource{DB: db}
}

func (s *SQLiteSource) List(ctx context.Context, kind domain.Kind) ([]domain.ContentItem, error) {
	recs, err := repo.ListPublished(ctx, s.DB, kind)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContentItem, len(recs))
	for i, r := range recs {
		out[i] = r.Item()
	}
	return out, nil
}

func (s *SQLiteSource) Get(ctx context.Context, kind domain.Kind, key string) (domain.ContentItem, error) {
	rec, err := repo.GetPublished(ctx, s.DB, kind, key)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ContentItem{}, ErrNotFound
	}
	if err != nil {
		return domain.ContentItem{}, err
	}
	return rec.Item(), nil
}
