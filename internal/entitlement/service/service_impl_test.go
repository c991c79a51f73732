package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/entitlement/domain"
	"github.com/smallbiznis/narzo/internal/entitlement/repository"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	productrepo "github.com/smallbiznis/narzo/internal/product/repository"
	"github.com/smallbiznis/narzo/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var paidAt = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   *Service
}

func newFixture(t *testing.T, maxDownloads int) fixture {
	t.Helper()
	db := storetest.OpenDB(t)
	node := storetest.IDNode(t)
	fake := clock.NewFakeClock(paidAt)
	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: fake,
		Cfg: config.Config{Storefront: config.StorefrontConfig{
			MaxDownloads:   maxDownloads,
			DownloadWindow: 7 * 24 * time.Hour,
		}},
		Repo:        repository.Provide(),
		ProductRepo: productrepo.Provide(),
	}).(*Service)
	return fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f fixture) provision(t *testing.T, lines []orderdomain.LineItem) []domain.Entitlement {
	t.Helper()
	encoded, err := orderdomain.EncodeLineItems(lines)
	require.NoError(t, err)
	order := &orderdomain.Order{ID: f.node.Generate().Int64(), MerchantRef: "NRZ-1-TESTAA", Items: encoded}

	var items []domain.Entitlement
	err = f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		items, err = f.svc.Provision(context.Background(), tx, order, paidAt)
		return err
	})
	require.NoError(t, err)
	return items
}

func TestProvisionEveryLine(t *testing.T) {
	f := newFixture(t, 5)
	ebook := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "ebook", Name: "Ebook", Price: 50000, IsDigital: true, DownloadURL: "https://files/ebook.pdf"})
	shirt := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "kaos", Name: "Kaos", Price: 120000})

	items := f.provision(t, []orderdomain.LineItem{
		{ProductID: shirt, Quantity: 1},
		{ProductID: ebook, Quantity: 2, IsDigital: true},
	})
	require.Len(t, items, 2)

	physical := items[0]
	assert.Equal(t, 0, physical.LineIndex)
	assert.Equal(t, shirt, physical.ProductID)

	ent := items[1]
	assert.Equal(t, 1, ent.LineIndex)
	assert.Equal(t, ebook, ent.ProductID)
	assert.Equal(t, 0, ent.DownloadsUsed)
	assert.Equal(t, 5, ent.MaxDownloads)
	assert.Equal(t, paidAt.Add(7*24*time.Hour), ent.DownloadExpires)
	assert.Len(t, ent.DeliveryToken, 26)

	raw, err := base64.RawURLEncoding.DecodeString(ent.DownloadToken)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, ent.DeliveryToken, ent.DownloadToken)

	assert.Equal(t, int64(2), storetest.Count(t, f.db, `SELECT COUNT(*) FROM entitlements`))
}

func TestRedeemQuotaBoundary(t *testing.T) {
	f := newFixture(t, 3)
	ebook := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "ebook", Name: "Ebook", IsDigital: true, DownloadURL: "https://files/ebook.pdf"})
	ent := f.provision(t, []orderdomain.LineItem{{ProductID: ebook, Quantity: 1, IsDigital: true}})[0]

	for i := 1; i <= 3; i++ {
		r, err := f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: ent.DownloadToken, IPAddress: "10.0.0.1", UserAgent: "curl"})
		require.NoError(t, err)
		assert.Equal(t, "https://files/ebook.pdf", r.DownloadURL)
		assert.Equal(t, i, r.Entitlement.DownloadsUsed)
		assert.Equal(t, 3-i, r.Entitlement.Remaining())
	}

	_, err := f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: ent.DownloadToken})
	assert.ErrorIs(t, err, domain.ErrLimitReached)

	assert.Equal(t, int64(3), storetest.Count(t, f.db, `SELECT downloads_used FROM entitlements WHERE id = ?`, ent.ID))
	assert.Equal(t, int64(3), storetest.Count(t, f.db, `SELECT COUNT(*) FROM download_logs WHERE entitlement_id = ?`, ent.ID))
}

func TestRedeemConcurrentNeverExceedsQuota(t *testing.T) {
	f := newFixture(t, 3)
	ebook := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "ebook", Name: "Ebook", IsDigital: true, DownloadURL: "https://files/ebook.pdf"})
	ent := f.provision(t, []orderdomain.LineItem{{ProductID: ebook, Quantity: 1, IsDigital: true}})[0]

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		limited int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: ent.DownloadToken})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				success++
			case domain.ErrLimitReached:
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, success)
	assert.Equal(t, workers-3, limited)
	assert.Equal(t, int64(3), storetest.Count(t, f.db, `SELECT downloads_used FROM entitlements WHERE id = ?`, ent.ID))
}

func TestRedeemExpiryBoundary(t *testing.T) {
	f := newFixture(t, 5)
	ebook := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "ebook", Name: "Ebook", IsDigital: true, DownloadURL: "https://files/ebook.pdf"})
	ent := f.provision(t, []orderdomain.LineItem{{ProductID: ebook, Quantity: 1, IsDigital: true}})[0]

	f.clock.Set(ent.DownloadExpires)
	_, err := f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: ent.DownloadToken})
	require.NoError(t, err, "redemption at exactly download_expires must succeed")

	f.clock.Set(ent.DownloadExpires.Add(time.Second))
	_, err = f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: ent.DownloadToken})
	assert.ErrorIs(t, err, domain.ErrExpired)
	assert.Equal(t, int64(1), storetest.Count(t, f.db, `SELECT downloads_used FROM entitlements WHERE id = ?`, ent.ID))
}

func TestRedeemErrors(t *testing.T) {
	f := newFixture(t, 5)
	broken := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "broken", Name: "Broken", IsDigital: true})
	ent := f.provision(t, []orderdomain.LineItem{{ProductID: broken, Quantity: 1, IsDigital: true}})[0]

	_, err := f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: "  "})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Redeem(context.Background(), domain.RedeemRequest{Token: ent.DownloadToken})
	assert.ErrorIs(t, err, domain.ErrDownloadUnavailable)
	assert.Equal(t, int64(0), storetest.Count(t, f.db, `SELECT downloads_used FROM entitlements WHERE id = ?`, ent.ID))
	assert.Equal(t, int64(0), storetest.Count(t, f.db, `SELECT COUNT(*) FROM download_logs`))
}

func TestListByOrder(t *testing.T) {
	f := newFixture(t, 5)
	a := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "a", Name: "A", IsDigital: true})
	b := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "b", Name: "B", IsDigital: true})
	items := f.provision(t, []orderdomain.LineItem{
		{ProductID: a, Quantity: 1, IsDigital: true},
		{ProductID: b, Quantity: 1, IsDigital: true},
	})

	listed, err := f.svc.ListByOrder(context.Background(), items[0].OrderID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 0, listed[0].LineIndex)
	assert.Equal(t, 1, listed[1].LineIndex)
}
