//go:build integration

package migration_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	entitlementdomain "github.com/smallbiznis/narzo/internal/entitlement/domain"
	entitlementrepo "github.com/smallbiznis/narzo/internal/entitlement/repository"
	entitlementservice "github.com/smallbiznis/narzo/internal/entitlement/service"
	"github.com/smallbiznis/narzo/internal/migration"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	orderrepo "github.com/smallbiznis/narzo/internal/order/repository"
	productrepo "github.com/smallbiznis/narzo/internal/product/repository"
	"github.com/smallbiznis/narzo/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("narzo"),
		tcpostgres.WithUsername("narzo"),
		tcpostgres.WithPassword("narzo"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestPostgresMigrationsAndConcurrentRedemption(t *testing.T) {
	conn := openPostgres(t)
	log := zaptest.NewLogger(t)

	require.NoError(t, migration.Apply(conn, "postgres", log))
	require.NoError(t, migration.Apply(conn, "postgres", log))

	node := storetest.IDNode(t)
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	ctx := context.Background()

	productID := storetest.SeedProduct(t, conn, node, storetest.ProductSeed{
		Slug: "ebook-x", Name: "Ebook X", Price: 50000, IsDigital: true, DownloadURL: "https://files.narzo.store/ebook-x.pdf",
	})
	items, err := orderdomain.EncodeLineItems([]orderdomain.LineItem{
		{ProductID: productID, Slug: "ebook-x", Name: "Ebook X", UnitPrice: 50000, Quantity: 1, IsDigital: true},
	})
	require.NoError(t, err)
	order := &orderdomain.Order{
		ID:            node.Generate().Int64(),
		MerchantRef:   "NRZ-1-PGTEST",
		CustomerName:  "Budi",
		CustomerEmail: "budi@example.com",
		Amount:        50000,
		PaymentMethod: "QRIS",
		Items:         items,
		PaymentStatus: orderdomain.StatusPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, orderrepo.Provide().Insert(ctx, conn, order))

	svc := entitlementservice.New(entitlementservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: fake,
		Cfg: config.Config{Storefront: config.StorefrontConfig{
			MaxDownloads:   3,
			DownloadWindow: 24 * time.Hour,
		}},
		Repo:        entitlementrepo.Provide(),
		ProductRepo: productrepo.Provide(),
	})

	var ents []entitlementdomain.Entitlement
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		ents, err = svc.Provision(ctx, tx, order, now)
		return err
	}))
	require.Len(t, ents, 1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		limited int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(ctx, entitlementdomain.RedeemRequest{Token: ents[0].DownloadToken})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, entitlementdomain.ErrLimitReached):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 9, limited)
	assert.Equal(t, int64(3), storetest.Count(t, conn, `SELECT downloads_used FROM entitlements WHERE id = ?`, ents[0].ID))
	assert.Equal(t, int64(3), storetest.Count(t, conn, `SELECT COUNT(*) FROM download_logs`))
}
