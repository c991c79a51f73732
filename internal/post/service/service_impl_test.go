package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/post/domain"
	"github.com/smallbiznis/narzo/internal/post/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE posts (
		id INTEGER PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title_id TEXT NOT NULL,
		title_en TEXT,
		excerpt_id TEXT,
		excerpt_en TEXT,
		content_id TEXT,
		content_en TEXT,
		cover_image TEXT,
		category TEXT,
		tags TEXT,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		enable_ads BOOLEAN NOT NULL DEFAULT TRUE,
		views INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *clock.FakeClock) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	return New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	}).(*Service), fake
}

func TestPostUpsertKeepsViews(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	created, isNew, err := svc.Upsert(ctx, domain.UpsertRequest{
		TitleID:   "Belajar Goroutine",
		Tags:      []string{" go ", "", "concurrency"},
		Published: true,
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "belajar-goroutine", created.Slug)
	assert.Equal(t, []string{"go", "concurrency"}, created.Tags)
	assert.True(t, created.EnableAds)

	read, err := svc.GetBySlug(ctx, created.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), read.Views)

	updated, isNew, err := svc.Upsert(ctx, domain.UpsertRequest{
		Slug:      created.Slug,
		TitleID:   "Belajar Goroutine (revisi)",
		Published: true,
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, int64(1), updated.Views)
	assert.Empty(t, updated.Tags)
}

func TestPostListFilters(t *testing.T) {
	db := setupTestDB(t)
	svc, fake := newTestService(t, db)
	ctx := context.Background()

	category := "tutorial"
	seed := []domain.UpsertRequest{
		{TitleID: "Draft", Published: false},
		{TitleID: "Satu", Published: true, Category: &category},
		{TitleID: "Dua", Published: true, Featured: true},
		{TitleID: "Tiga", Published: true, Featured: true, Category: &category},
	}
	for _, req := range seed {
		_, _, err := svc.Upsert(ctx, req)
		require.NoError(t, err)
		fake.Advance(time.Minute)
	}

	published, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, published, 3)
	assert.Equal(t, "tiga", published[0].Slug)

	featured := true
	items, err := svc.List(ctx, domain.ListRequest{Featured: &featured, Category: category})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tiga", items[0].Slug)

	limited, err := svc.List(ctx, domain.ListRequest{Limit: 2, IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = svc.List(ctx, domain.ListRequest{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)

	_, err = svc.GetBySlug(ctx, "draft", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	draft, err := svc.GetBySlug(ctx, "draft", true)
	require.NoError(t, err)
	assert.False(t, draft.Published)
}

func TestPostDelete(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	a, _, err := svc.Upsert(ctx, domain.UpsertRequest{TitleID: "A"})
	require.NoError(t, err)
	_, _, err = svc.Upsert(ctx, domain.UpsertRequest{TitleID: "B"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, domain.DeleteRequest{ID: a.ID}))
	require.NoError(t, svc.Delete(ctx, domain.DeleteRequest{Slug: "b"}))
	assert.ErrorIs(t, svc.Delete(ctx, domain.DeleteRequest{Slug: "b"}), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, domain.DeleteRequest{}), domain.ErrInvalidID)
}
