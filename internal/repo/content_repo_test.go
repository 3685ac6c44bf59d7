package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

func newContentDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func seed(t *testing.T, db *gorm.DB, kind domain.Kind, key, status string, at time.Time) {
	t.Helper()
	rec := domain.RecordFromItem(domain.ContentItem{
		Kind: kind, Key: key, Title: "Title " + key, Summary: "Summary " + key,
		Tags: []string{"go"}, PublishedAt: at,
	}, status)
	if err := UpsertContent(context.Background(), db, &rec); err != nil {
		t.Fatalf("upsert %s: %v", key, err)
	}
}

func TestListPublished_FiltersAndOrders(t *testing.T) {
	db := newContentDB(t, true)
	seed(t, db, domain.KindBlog, "b", domain.StatusPublished, day(3))
	seed(t, db, domain.KindBlog, "a", domain.StatusPublished, day(3))
	seed(t, db, domain.KindBlog, "old", domain.StatusPublished, day(1))
	seed(t, db, domain.KindBlog, "wip", domain.StatusDraft, day(9))
	seed(t, db, domain.KindWork, "w", domain.StatusPublished, day(5))

	got, err := ListPublished(context.Background(), db, domain.KindBlog)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 published blog records, got %d", len(got))
	}
	if got[0].Key != "a" || got[1].Key != "b" || got[2].Key != "old" {
		t.Fatalf("unexpected order: %s,%s,%s", got[0].Key, got[1].Key, got[2].Key)
	}
}

func TestListPublished_NoTable(t *testing.T) {
	db := newContentDB(t, false)
	if _, err := ListPublished(context.Background(), db, domain.KindWork); err == nil {
		t.Fatalf("expected error without schema")
	}
}

func TestGetPublished_NotFoundForDraftsAndMissing(t *testing.T) {
	db := newContentDB(t, true)
	seed(t, db, domain.KindLab, "synth", domain.StatusReview, day(2))

	if _, err := GetPublished(context.Background(), db, domain.KindLab, "synth"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft must be hidden, got %v", err)
	}
	if _, err := GetPublished(context.Background(), db, domain.KindLab, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := SetStatus(context.Background(), db, domain.KindLab, "synth", domain.StatusPublished); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	rec, err := GetPublished(context.Background(), db, domain.KindLab, "synth")
	if err != nil || rec.Title != "Title synth" {
		t.Fatalf("GetPublished after publish: rec=%+v err=%v", rec, err)
	}

	if err := SetStatus(context.Background(), db, domain.KindLab, "ghost", domain.StatusPublished); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetStatus on missing should be ErrNotFound, got %v", err)
	}
}

func TestUpsertContent_Overwrites(t *testing.T) {
	db := newContentDB(t, true)
	seed(t, db, domain.KindWork, "pay", domain.StatusPublished, day(1))

	rec := domain.RecordFromItem(domain.ContentItem{
		Kind: domain.KindWork, Key: "pay", Title: "Payments v2", Summary: "new",
		TechStack: []string{"Go", "Kafka"}, PublishedAt: day(4),
	}, domain.StatusPublished)
	if err := UpsertContent(context.Background(), db, &rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var n int64
	db.Model(&domain.ContentRecord{}).Count(&n)
	if n != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", n)
	}
	got, err := GetPublished(context.Background(), db, domain.KindWork, "pay")
	if err != nil {
		t.Fatalf("GetPublished: %v", err)
	}
	if got.Title != "Payments v2" || len(got.TechStack) != 2 || !got.PublishedAt.Equal(day(4)) {
		t.Fatalf("record not overwritten: %+v", got)
	}
}

func TestPublishedStats(t *testing.T) {
	db := newContentDB(t, true)
	ctx := context.Background()

	n, latest, err := PublishedStats(ctx, db, domain.KindBlog)
	if err != nil || n != 0 || latest != nil {
		t.Fatalf("empty stats: n=%d latest=%v err=%v", n, latest, err)
	}

	seed(t, db, domain.KindBlog, "x", domain.StatusPublished, day(2))
	seed(t, db, domain.KindBlog, "y", domain.StatusPublished, day(7))
	seed(t, db, domain.KindBlog, "z", domain.StatusDraft, day(9))

	n, latest, err = PublishedStats(ctx, db, domain.KindBlog)
	if err != nil {
		t.Fatalf("PublishedStats: %v", err)
	}
	if n != 2 || latest == nil || !latest.Equal(day(7)) {
		t.Fatalf("stats: n=%d latest=%v", n, latest)
	}
}
