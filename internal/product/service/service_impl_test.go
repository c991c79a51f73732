package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/product/domain"
	"github.com/smallbiznis/narzo/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name_id TEXT NOT NULL,
		name_en TEXT,
		description_id TEXT,
		description_en TEXT,
		price INTEGER NOT NULL,
		image_url TEXT,
		stock INTEGER NOT NULL DEFAULT 0,
		category_id TEXT,
		is_digital BOOLEAN NOT NULL DEFAULT FALSE,
		download_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *clock.FakeClock) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	}).(*Service)
	return svc, fake
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func TestUpsertDerivesSlugAndUpdatesInPlace(t *testing.T) {
	db := setupTestDB(t)
	svc, fake := newTestService(t, db)
	ctx := context.Background()

	created, isNew, err := svc.Upsert(ctx, domain.UpsertRequest{
		NameID:      "Ebook Belajar Go",
		Price:       50000,
		IsDigital:   true,
		DownloadURL: strPtr("https://files.example.com/ebook.pdf"),
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "ebook-belajar-go", created.Slug)
	assert.True(t, created.IsActive)
	assert.Equal(t, domain.UnlimitedStock, created.Stock)

	fake.Advance(time.Hour)
	updated, isNew, err := svc.Upsert(ctx, domain.UpsertRequest{
		Slug:   "ebook-belajar-go",
		NameID: "Ebook Belajar Go Edisi 2",
		Price:  75000,
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, int64(75000), updated.Price)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM products`).Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertValidation(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.UpsertRequest
		err  error
	}{
		{"missing name", domain.UpsertRequest{Price: 10}, domain.ErrInvalidName},
		{"bad slug", domain.UpsertRequest{NameID: "x", Slug: "Not A Slug"}, domain.ErrInvalidSlug},
		{"negative price", domain.UpsertRequest{NameID: "x", Price: -1}, domain.ErrInvalidPrice},
		{"negative stock", domain.UpsertRequest{NameID: "x", Stock: intPtr(-2)}, domain.ErrInvalidStock},
		{"bad url", domain.UpsertRequest{NameID: "x", ImageURL: strPtr("not-a-url")}, domain.ErrInvalidURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Upsert(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestFindActiveByIDOrSlug(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	inactive := false
	active, _, err := svc.Upsert(ctx, domain.UpsertRequest{NameID: "Kaos Narzo", Price: 120000, Stock: intPtr(3)})
	require.NoError(t, err)
	_, _, err = svc.Upsert(ctx, domain.UpsertRequest{NameID: "Arsip Lama", Price: 1000, IsActive: &inactive})
	require.NoError(t, err)

	byID, err := svc.FindActive(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "kaos-narzo", byID.Slug)

	bySlug, err := svc.FindActive(ctx, "kaos-narzo")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, bySlug.ID)

	_, err = svc.FindActive(ctx, "arsip-lama")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.FindActive(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetBySlug(ctx, "arsip-lama", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	hidden, err := svc.GetBySlug(ctx, "arsip-lama", true)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)
}

func TestListAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc, fake := newTestService(t, db)
	ctx := context.Background()

	inactive := false
	for i, name := range []string{"Satu", "Dua", "Tiga"} {
		req := domain.UpsertRequest{NameID: name, Price: int64(1000 * (i + 1))}
		if name == "Tiga" {
			req.IsActive = &inactive
		}
		_, _, err := svc.Upsert(ctx, req)
		require.NoError(t, err)
		fake.Advance(time.Minute)
	}

	items, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "dua", items[0].Slug)

	all, err := svc.List(ctx, domain.ListRequest{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, svc.Delete(ctx, domain.DeleteRequest{Slug: "satu"}))
	assert.ErrorIs(t, svc.Delete(ctx, domain.DeleteRequest{Slug: "satu"}), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, domain.DeleteRequest{}), domain.ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(ctx, domain.DeleteRequest{ID: "abc"}), domain.ErrInvalidID)
}
