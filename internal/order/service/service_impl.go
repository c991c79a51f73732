package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/observability/logger"
	"github.com/smallbiznis/narzo/internal/observability/metrics"
	"github.com/smallbiznis/narzo/internal/order/domain"
	productdomain "github.com/smallbiznis/narzo/internal/product/domain"
	"github.com/smallbiznis/narzo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMerchantRefAttempts = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Repo     domain.Repository
	Products productdomain.Service
	Gateway  domain.Gateway
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	products productdomain.Service
	gateway  domain.Gateway
	metrics  *metrics.Metrics
	validate *validator.Validate

	refPrefix      string
	returnURL      string
	checkoutExpiry time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("order.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		products:       p.Products,
		gateway:        p.Gateway,
		metrics:        p.Metrics,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		refPrefix:      p.Cfg.Storefront.MerchantRefPrefix,
		returnURL:      p.Cfg.Tripay.ReturnURL,
		checkoutExpiry: p.Cfg.Storefront.CheckoutExpiry,
	}
}

// Checkout prices the request against the active catalog, stores an UNPAID
// order and opens a transaction with the payment gateway. A gateway failure
// leaves the order UNPAID and is reported as ErrUpstream.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	req = normalizeCheckout(req)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, toValidationError(err)
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	var amount int64
	for _, it := range req.Items {
		product, err := s.products.FindActive(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, productdomain.ErrNotFound) || errors.Is(err, productdomain.ErrInvalidID) {
				return nil, domain.ErrProductNotFound
			}
			return nil, err
		}
		line := domain.LineItem{
			ProductID: product.ID,
			Slug:      product.Slug,
			Name:      product.DisplayName(),
			UnitPrice: product.Price,
			Quantity:  it.Quantity,
			IsDigital: product.IsDigital,
		}
		items = append(items, line)
		amount += line.Subtotal()
	}

	encoded, err := domain.EncodeLineItems(items)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	order := &domain.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Amount:        amount,
		PaymentMethod: req.Method,
		Items:         encoded,
		PaymentStatus: domain.StatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.CustomerPhone != "" {
		phone := req.CustomerPhone
		order.CustomerPhone = &phone
	}

	if err := s.insertWithFreshRef(ctx, order); err != nil {
		return nil, err
	}

	log := logger.WithOrder(s.log, order.MerchantRef)
	log.Info("order created",
		zap.Int64("amount", order.Amount),
		zap.String("payment_method", order.PaymentMethod),
		zap.Int("line_items", len(items)),
	)
	s.metrics.RecordOrderCreated(ctx, order.PaymentMethod)

	expiresAt := now.Add(s.checkoutExpiry)
	txn, err := s.gateway.CreateTransaction(ctx, domain.GatewayRequest{
		MerchantRef:   order.MerchantRef,
		Method:        order.PaymentMethod,
		Amount:        order.Amount,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
		ReturnURL:     s.returnURLFor(order.MerchantRef),
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		log.Warn("gateway transaction failed, order left unpaid", zap.Error(err))
		if errors.Is(err, domain.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	if err := s.repo.AttachGateway(ctx, s.db, order.ID, txn.Reference, txn.CheckoutURL, s.clock.Now()); err != nil {
		log.Error("failed to persist gateway reference",
			zap.String("gateway_reference", txn.Reference),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.CheckoutResponse{
		MerchantRef:   order.MerchantRef,
		Amount:        order.Amount,
		PaymentStatus: order.PaymentStatus,
		Reference:     txn.Reference,
		CheckoutURL:   txn.CheckoutURL,
		ExpiresAt:     expiresAt,
	}, nil
}

func (s *Service) insertWithFreshRef(ctx context.Context, order *domain.Order) error {
	for attempt := 1; attempt <= maxMerchantRefAttempts; attempt++ {
		ref, err := domain.NewMerchantRef(s.refPrefix, order.CreatedAt)
		if err != nil {
			return err
		}
		order.ID = s.genID.Generate().Int64()
		order.MerchantRef = ref

		err = s.repo.Insert(ctx, s.db, order)
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		s.log.Warn("merchant ref collision", zap.String("merchant_ref", ref), zap.Int("attempt", attempt))
	}
	return domain.ErrMerchantRefExists
}

func (s *Service) GetByMerchantRef(ctx context.Context, merchantRef string) (*domain.Order, error) {
	merchantRef = strings.TrimSpace(merchantRef)
	if merchantRef == "" {
		return nil, domain.ErrInvalidMerchantRef
	}
	order, err := s.repo.FindByMerchantRef(ctx, s.db, merchantRef)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) returnURLFor(merchantRef string) string {
	sep := "?"
	if strings.Contains(s.returnURL, "?") {
		sep = "&"
	}
	return s.returnURL + sep + "ref=" + url.QueryEscape(merchantRef)
}

func normalizeCheckout(req domain.CheckoutRequest) domain.CheckoutRequest {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	items := make([]domain.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		items = append(items, it)
	}
	req.Items = items
	return req
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrInvalidCheckout
	}
	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field: fieldName(fe.Namespace()),
			Rule:  fe.Tag(),
		})
	}
	return out
}

var fieldNames = map[string]string{
	"CustomerName":  "name",
	"CustomerEmail": "email",
	"CustomerPhone": "phone",
	"Method":        "method",
	"Items":         "items",
	"ProductID":     "product_id",
	"Quantity":      "quantity",
}

// fieldName turns CheckoutRequest.Items[0].Quantity into items[0].quantity.
func fieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		base, index := part, ""
		if j := strings.Index(part, "["); j >= 0 {
			base, index = part[:j], part[j:]
		}
		if name, ok := fieldNames[base]; ok {
			base = name
		}
		parts[i] = base + index
	}
	return strings.Join(parts, ".")
}
