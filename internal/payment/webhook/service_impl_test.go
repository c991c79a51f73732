package webhook

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepo "github.com/smallbiznis/narzo/internal/audit/repository"
	auditservice "github.com/smallbiznis/narzo/internal/audit/service"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	entitlementrepo "github.com/smallbiznis/narzo/internal/entitlement/repository"
	entitlementservice "github.com/smallbiznis/narzo/internal/entitlement/service"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	orderrepo "github.com/smallbiznis/narzo/internal/order/repository"
	"github.com/smallbiznis/narzo/internal/payment/adapters"
	"github.com/smallbiznis/narzo/internal/payment/adapters/tripay"
	paymentdomain "github.com/smallbiznis/narzo/internal/payment/domain"
	productrepo "github.com/smallbiznis/narzo/internal/product/repository"
	"github.com/smallbiznis/narzo/internal/ratelimit"
	"github.com/smallbiznis/narzo/internal/providers/email"
	"github.com/smallbiznis/narzo/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const privateKey = "test-private-key"

var now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type sentMail struct {
	to      []string
	subject string
	data    any
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (m *recordingMailer) SendTemplate(ctx context.Context, to []string, subject string, templateName string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, data: data})
	return nil
}

type fixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	mailer *recordingMailer
	svc    paymentdomain.Service
}

func newFixture(t *testing.T, opts ...func(*Params)) fixture {
	t.Helper()
	db := storetest.OpenDB(t)
	node := storetest.IDNode(t)
	log := zaptest.NewLogger(t)
	fake := clock.NewFakeClock(now)
	cfg := config.Config{
		Tripay: config.TripayConfig{MerchantCode: "T0001", PrivateKey: privateKey},
		Storefront: config.StorefrontConfig{
			SiteURL:        "https://narzo.store",
			MaxDownloads:   5,
			DownloadWindow: 7 * 24 * time.Hour,
		},
	}

	entitlements := entitlementservice.New(entitlementservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Cfg:         cfg,
		Repo:        entitlementrepo.Provide(),
		ProductRepo: productrepo.Provide(),
	})
	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})
	mailer := &recordingMailer{}

	params := Params{
		DB:           db,
		Log:          log,
		Clock:        fake,
		Cfg:          cfg,
		Adapters:     adapters.NewRegistry(tripay.NewFactory()),
		Orders:       orderrepo.Provide(),
		Entitlements: entitlements,
		Audit:        audit,
		Email:        mailer,
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc := NewService(params)
	return fixture{db: db, node: node, mailer: mailer, svc: svc}
}

func (f fixture) seedOrder(t *testing.T, ref string, status orderdomain.PaymentStatus, lines []orderdomain.LineItem) {
	t.Helper()
	items, err := orderdomain.EncodeLineItems(lines)
	require.NoError(t, err)
	var amount int64
	for _, l := range lines {
		amount += l.Subtotal()
	}
	err = orderrepo.Provide().Insert(context.Background(), f.db, &orderdomain.Order{
		ID:            f.node.Generate().Int64(),
		MerchantRef:   ref,
		CustomerName:  "Budi",
		CustomerEmail: "budi@example.com",
		Amount:        amount,
		PaymentMethod: "QRIS",
		Items:         items,
		PaymentStatus: status,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
}

func (f fixture) ebookOrder(t *testing.T, ref string) {
	t.Helper()
	ebook := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{
		Slug: "ebook-x", Name: "Ebook X", Price: 50000, IsDigital: true, DownloadURL: "https://files.narzo.store/ebook-x.pdf",
	})
	f.seedOrder(t, ref, orderdomain.StatusUnpaid, []orderdomain.LineItem{
		{ProductID: ebook, Slug: "ebook-x", Name: "Ebook X", UnitPrice: 50000, Quantity: 1, IsDigital: true},
	})
}

func callback(ref, status string) ([]byte, http.Header) {
	body := []byte(fmt.Sprintf(
		`{"reference":"T0001%s","merchant_ref":"%s","payment_method":"QRIS","total_amount":50000,"status":"%s","paid_at":1746093600}`,
		ref[len(ref)-6:], ref, status,
	))
	headers := http.Header{}
	headers.Set(tripay.HeaderSignature, tripay.Sign(body, privateKey))
	headers.Set(tripay.HeaderEvent, "payment_status")
	return body, headers
}

func TestPaidCallbackProvisionsOnce(t *testing.T) {
	f := newFixture(t)
	ref := "NRZ-1746093000000-ABC123"
	f.ebookOrder(t, ref)

	body, headers := callback(ref, "PAID")
	res, err := f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeApplied, res.Outcome)
	assert.Equal(t, 1, res.Entitlements)

	dup, err := f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeDuplicate, dup.Outcome)

	order, err := orderrepo.Provide().FindByMerchantRef(context.Background(), f.db, ref)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaid, order.PaymentStatus)
	require.NotNil(t, order.PaidAt)
	assert.True(t, order.PaidAt.Equal(time.Unix(1746093600, 0)))

	assert.Equal(t, int64(1), storetest.Count(t, f.db, `SELECT COUNT(*) FROM entitlements WHERE merchant_ref = ?`, ref))
	assert.Equal(t, int64(1), storetest.Count(t, f.db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'order.paid'`))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Order Confirmed - "+ref, f.mailer.sent[0].subject)
	assert.Equal(t, []string{"budi@example.com"}, f.mailer.sent[0].to)
}

func TestPaidPhysicalOrderProvisionsWithoutDownloadLinks(t *testing.T) {
	f := newFixture(t)
	ref := "NRZ-1746093000000-KAOS01"
	shirt := storetest.SeedProduct(t, f.db, f.node, storetest.ProductSeed{Slug: "kaos", Name: "Kaos Narzo", Price: 50000})
	f.seedOrder(t, ref, orderdomain.StatusUnpaid, []orderdomain.LineItem{
		{ProductID: shirt, Slug: "kaos", Name: "Kaos Narzo", UnitPrice: 50000, Quantity: 1},
	})

	body, headers := callback(ref, "PAID")
	res, err := f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeApplied, res.Outcome)
	assert.Equal(t, 1, res.Entitlements)
	assert.Equal(t, int64(1), storetest.Count(t, f.db, `SELECT COUNT(*) FROM entitlements WHERE merchant_ref = ?`, ref))

	require.Len(t, f.mailer.sent, 1)
	msg, ok := f.mailer.sent[0].data.(email.OrderConfirmation)
	require.True(t, ok)
	assert.Empty(t, msg.Downloads)
	require.Len(t, msg.Items, 1)
	assert.Equal(t, "Kaos Narzo", msg.Items[0].Name)
}

func TestExpiredCallbackThenPaidConflicts(t *testing.T) {
	f := newFixture(t)
	ref := "NRZ-1746093000000-EXP001"
	f.ebookOrder(t, ref)

	body, headers := callback(ref, "EXPIRED")
	res, err := f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeApplied, res.Outcome)
	assert.Zero(t, res.Entitlements)

	body, headers = callback(ref, "PAID")
	_, err = f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrStatusConflict)

	assert.Zero(t, storetest.Count(t, f.db, `SELECT COUNT(*) FROM entitlements`))
	assert.Empty(t, f.mailer.sent)
}

func TestCallbackRejections(t *testing.T) {
	f := newFixture(t)
	ref := "NRZ-1746093000000-REJ001"
	f.ebookOrder(t, ref)

	body, headers := callback(ref, "PAID")
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = '1'
	_, err := f.svc.IngestWebhook(context.Background(), "tripay", tampered, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	body, headers = callback(ref, "REFUND")
	_, err = f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrUnknownStatus)

	body, headers = callback("NRZ-1746093000000-NOPE00", "PAID")
	_, err = f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotFound)

	_, err = f.svc.IngestWebhook(context.Background(), "midtrans", body, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrProviderNotFound)

	order, err := orderrepo.Provide().FindByMerchantRef(context.Background(), f.db, ref)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusUnpaid, order.PaymentStatus)
}

func TestConcurrentPaidCallbacksProvisionOnce(t *testing.T) {
	f := newFixture(t)
	ref := "NRZ-1746093000000-CON001"
	f.ebookOrder(t, ref)
	body, headers := callback(ref, "PAID")

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.IngestWebhook(context.Background(), "tripay", body, headers)
			if err != nil {
				t.Errorf("ingest: %v", err)
				return
			}
			if res.Outcome == paymentdomain.OutcomeApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, int64(1), storetest.Count(t, f.db, `SELECT COUNT(*) FROM entitlements WHERE merchant_ref = ?`, ref))
}

func withMemoryLimiter(t *testing.T) (*ratelimit.Limiter, func(*Params)) {
	t.Helper()
	limiter, err := ratelimit.New(ratelimit.Params{
		Cfg: config.Config{RateLimit: config.RateLimitConfig{
			Enabled:       true,
			CheckoutRate:  1,
			CheckoutBurst: 1,
			DownloadRate:  1,
			DownloadBurst: 1,
			CallbackLock:  time.Minute,
		}},
		Log:   zaptest.NewLogger(t),
		Clock: clock.NewFakeClock(now),
	})
	require.NoError(t, err)
	return limiter, func(p *Params) { p.Limiter = limiter }
}

func TestDuplicateCallbackWaitsForRunningDelivery(t *testing.T) {
	limiter, opt := withMemoryLimiter(t)
	f := newFixture(t, opt)
	ref := "NRZ-1746093000000-WAIT01"
	f.ebookOrder(t, ref)
	body, headers := callback(ref, "PAID")
	ctx := context.Background()

	first, err := f.svc.IngestWebhook(ctx, "tripay", body, headers)
	require.NoError(t, err)
	require.Equal(t, paymentdomain.OutcomeApplied, first.Outcome)

	token, ok, err := limiter.TryLockCallback(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)
	released := make(chan struct{})
	go func() {
		defer close(released)
		time.Sleep(150 * time.Millisecond)
		assert.NoError(t, limiter.ReleaseCallback(ctx, ref, token))
	}()

	dup, err := f.svc.IngestWebhook(ctx, "tripay", body, headers)
	<-released
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeDuplicate, dup.Outcome)
	assert.Equal(t, int64(1), storetest.Count(t, f.db, `SELECT COUNT(*) FROM entitlements WHERE merchant_ref = ?`, ref))
}

func TestCallbackInFlightWhenLockStaysHeld(t *testing.T) {
	limiter, opt := withMemoryLimiter(t)
	f := newFixture(t, opt)
	f.svc.(*Service).lockWait = 100 * time.Millisecond
	ref := "NRZ-1746093000000-HELD01"
	f.ebookOrder(t, ref)
	ctx := context.Background()

	_, ok, err := limiter.TryLockCallback(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)

	body, headers := callback(ref, "PAID")
	_, err = f.svc.IngestWebhook(ctx, "tripay", body, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrCallbackInFlight)

	order, err := orderrepo.Provide().FindByMerchantRef(ctx, f.db, ref)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusUnpaid, order.PaymentStatus)
}
