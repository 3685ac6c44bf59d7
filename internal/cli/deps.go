package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/content"
	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
	"github.com/tbourn/go-portfolio-backend/internal/search"
)

func noopClose() error { return nil }

// openDB opens and migrates the SQLite content database.
func openDB(path string) (*gorm.DB, func() error, error) {
	db, err := repo.OpenSQLite(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	closeDB := func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return db, closeDB, nil
}

// openSource builds the content source selected by CONTENT_BACKEND. The
// returned close function releases the database handle, if any.
func openSource(cfg config.ContentConfig) (content.Source, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, closeDB, err := openDB(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return content.NewSQLiteSource(db), closeDB, nil
	case config.BackendRemote:
		return content.NewRemoteSource(cfg.APIURL, cfg.APIToken, cfg.APITimeout), noopClose, nil
	case config.BackendMarkdown, "":
		return content.NewMarkdownSource(cfg.Dir), noopClose, nil
	}
	return nil, nil, fmt.Errorf("unknown content backend %q", cfg.Backend)
}

// newEngine builds a search engine reading the artifact from SEARCH_INDEX_URL
// when set, otherwise from SEARCH_INDEX_PATH.
func newEngine(cfg config.SearchConfig) *search.Engine {
	var f search.Fetcher = &search.FileFetcher{Path: cfg.IndexPath}
	if cfg.IndexURL != "" {
		f = search.NewHTTPFetcher(cfg.IndexURL)
	}

	factory := search.MatcherFactory(search.FuzzyMatcherFactory)
	if cfg.Backend == config.SearchBleve {
		factory = search.BleveMatcherFactory
	}

	return search.NewEngine(f,
		search.WithThreshold(cfg.Threshold),
		search.WithWeights(search.Weights{
			Title:   cfg.WeightTitle,
			Summary: cfg.WeightSummary,
			Tags:    cfg.WeightTags,
			Content: cfg.WeightContent,
		}),
		search.WithMatcherFactory(factory),
	)
}

// parseKinds maps --kind values to kinds; an empty list means every kind.
func parseKinds(vals []string) ([]domain.Kind, error) {
	if len(vals) == 0 {
		return domain.Kinds, nil
	}
	out := make([]domain.Kind, 0, len(vals))
	for _, v := range vals {
		k, ok := domain.ParseKind(v)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q (want work, lab or blog)", v)
		}
		out = append(out, k)
	}
	return out, nil
}
