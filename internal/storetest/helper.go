// Package storetest opens SQLite databases carrying the storefront schema for
// package tests.
package storetest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE categories (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name_id TEXT NOT NULL,
		name_en TEXT,
		parent_id TEXT,
		icon TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name_id TEXT NOT NULL,
		name_en TEXT,
		description_id TEXT,
		description_en TEXT,
		price INTEGER NOT NULL,
		image_url TEXT,
		stock INTEGER NOT NULL DEFAULT -1,
		category_id TEXT,
		is_digital BOOLEAN NOT NULL DEFAULT FALSE,
		download_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE posts (
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
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		merchant_ref TEXT NOT NULL UNIQUE,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		customer_phone TEXT,
		amount INTEGER NOT NULL,
		payment_method TEXT NOT NULL,
		items TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'UNPAID',
		gateway_reference TEXT,
		checkout_url TEXT,
		paid_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE entitlements (
		id INTEGER PRIMARY KEY,
		order_id INTEGER NOT NULL,
		merchant_ref TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		line_index INTEGER NOT NULL,
		delivery_token TEXT NOT NULL UNIQUE,
		download_token TEXT NOT NULL UNIQUE,
		downloads_used INTEGER NOT NULL DEFAULT 0,
		max_downloads INTEGER NOT NULL,
		download_expires TIMESTAMP NOT NULL,
		paid_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (order_id, line_index),
		CHECK (downloads_used >= 0 AND downloads_used <= max_downloads)
	)`,
	`CREATE TABLE download_logs (
		id INTEGER PRIMARY KEY,
		entitlement_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE audit_logs (
		id INTEGER PRIMARY KEY,
		actor_type TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
}

// OpenDB returns an isolated in-memory database with every storefront
// table. The pool is limited to one connection so concurrent callers queue
// instead of failing on SQLite table locks.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func IDNode(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return node
}

type ProductSeed struct {
	Slug        string
	Name        string
	Price       int64
	IsDigital   bool
	DownloadURL string
	Inactive    bool
}

// SeedProduct inserts a product row and returns its id.
func SeedProduct(t testing.TB, db *gorm.DB, node *snowflake.Node, p ProductSeed) int64 {
	t.Helper()
	id := node.Generate().Int64()
	var downloadURL *string
	if p.DownloadURL != "" {
		downloadURL = &p.DownloadURL
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := db.Exec(
		`INSERT INTO products (id, slug, name_id, price, is_digital, download_url, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Slug, p.Name, p.Price, p.IsDigital, downloadURL, !p.Inactive, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func Count(t testing.TB, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Raw(query, args...).Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
