package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	entitlementdomain "github.com/smallbiznis/narzo/internal/entitlement/domain"
	"github.com/smallbiznis/narzo/internal/observability/logger"
	"github.com/smallbiznis/narzo/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	"github.com/smallbiznis/narzo/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/narzo/internal/payment/domain"
	"github.com/smallbiznis/narzo/internal/providers/email"
	"github.com/smallbiznis/narzo/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Cfg          config.Config
	Adapters     adapters.Registry
	Orders       orderdomain.Repository
	Entitlements entitlementdomain.Service
	Audit        auditdomain.Service
	Email        email.Provider
	Limiter      *ratelimit.Limiter `optional:"true"`
	Metrics      *metrics.Metrics   `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	cfg          config.Config
	adapters     adapters.Registry
	orders       orderdomain.Repository
	entitlements entitlementdomain.Service
	audit        auditdomain.Service
	email        email.Provider
	limiter      *ratelimit.Limiter
	metrics      *metrics.Metrics
	lockWait     time.Duration
}

const (
	callbackLockWait = 5 * time.Second
	callbackLockPoll = 50 * time.Millisecond
)

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.webhook"),
		clock:        p.Clock,
		cfg:          p.Cfg,
		adapters:     p.Adapters,
		orders:       p.Orders,
		entitlements: p.Entitlements,
		audit:        p.Audit,
		email:        p.Email,
		limiter:      p.Limiter,
		metrics:      p.Metrics,
		lockWait:     callbackLockWait,
	}
}

// transition is what a committed callback changed.
type transition struct {
	order        *orderdomain.Order
	entitlements []entitlementdomain.Entitlement
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*paymentdomain.Result, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	if s.adapters == nil || !s.adapters.ProviderExists(provider) {
		return nil, paymentdomain.ErrProviderNotFound
	}

	adapter, err := s.adapters.NewAdapter(provider, paymentdomain.AdapterConfig{
		MerchantCode: s.cfg.Tripay.MerchantCode,
		PrivateKey:   s.cfg.Tripay.PrivateKey,
	})
	if err != nil {
		return nil, err
	}
	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.metrics.RecordPaymentCallback(ctx, provider, "", "rejected")
		s.log.Warn("payment callback rejected", zap.String("provider", provider), zap.Error(err))
		return nil, err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		s.metrics.RecordPaymentCallback(ctx, provider, "", "rejected")
		return nil, err
	}
	event.Provider = provider

	log := logger.WithOrder(s.log, event.MerchantRef).With(
		zap.String("provider", provider),
		zap.String("status", string(event.Status)),
		zap.String("reference", event.Reference),
	)

	lockToken, locked, err := s.lockCallback(ctx, event.MerchantRef)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		log.Warn("callback lock unavailable, continuing without it", zap.Error(err))
	} else if !locked {
		s.metrics.RecordPaymentCallback(ctx, provider, string(event.Status), "in_flight")
		return nil, paymentdomain.ErrCallbackInFlight
	} else {
		defer func() {
			if err := s.limiter.ReleaseCallback(context.WithoutCancel(ctx), event.MerchantRef, lockToken); err != nil {
				log.Warn("failed to release callback lock", zap.Error(err))
			}
		}()
	}

	applied, err := s.apply(ctx, event)
	if err != nil {
		outcome := "error"
		if errors.Is(err, paymentdomain.ErrStatusConflict) {
			outcome = "conflict"
			log.Warn("payment callback conflicts with stored status", zap.Error(err))
		}
		s.metrics.RecordPaymentCallback(ctx, provider, string(event.Status), outcome)
		return nil, err
	}

	result := &paymentdomain.Result{
		MerchantRef: event.MerchantRef,
		Status:      event.Status,
		Outcome:     paymentdomain.OutcomeDuplicate,
	}
	if applied == nil {
		log.Info("duplicate payment callback ignored")
		s.metrics.RecordPaymentCallback(ctx, provider, string(event.Status), string(result.Outcome))
		return result, nil
	}

	result.Outcome = paymentdomain.OutcomeApplied
	result.Entitlements = len(applied.entitlements)
	s.metrics.RecordPaymentCallback(ctx, provider, string(event.Status), string(result.Outcome))
	s.metrics.RecordEntitlementsIssued(ctx, len(applied.entitlements))
	log.Info("payment callback applied", zap.Int("entitlements", len(applied.entitlements)))

	s.afterCommit(ctx, log, event, applied)
	return result, nil
}

// lockCallback waits up to lockWait for another delivery of the same
// reference to finish, so a repeated callback sees the committed status.
// A delivery still holding the lock after that is reported as
// ErrCallbackInFlight and left to the provider's retry.
func (s *Service) lockCallback(ctx context.Context, merchantRef string) (string, bool, error) {
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()
	poll := time.NewTicker(callbackLockPoll)
	defer poll.Stop()

	for {
		token, ok, err := s.limiter.TryLockCallback(ctx, merchantRef)
		if err != nil || ok {
			return token, ok, err
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-deadline.C:
			return "", false, nil
		case <-poll.C:
		}
	}
}

// apply runs the status transition in one transaction. A nil transition with
// a nil error means the callback repeated a status already stored.
func (s *Service) apply(ctx context.Context, event *paymentdomain.PaymentEvent) (*transition, error) {
	var applied *transition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orders.FindByMerchantRef(ctx, tx, event.MerchantRef)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}
		if order.PaymentStatus.IsTerminal() {
			return classifyRepeat(order.PaymentStatus, event.Status)
		}

		now := s.clock.Now().UTC()
		var reference *string
		if event.Reference != "" {
			reference = &event.Reference
		}

		var claimed bool
		if event.Status == orderdomain.StatusPaid {
			paidAt := now
			if event.PaidAt != nil {
				paidAt = event.PaidAt.UTC()
			}
			claimed, err = s.orders.MarkPaid(ctx, tx, event.MerchantRef, reference, paidAt, now)
			if err != nil {
				return err
			}
			if claimed {
				items, err := s.entitlements.Provision(ctx, tx, order, paidAt)
				if err != nil {
					return err
				}
				order.PaymentStatus = orderdomain.StatusPaid
				order.PaidAt = &paidAt
				applied = &transition{order: order, entitlements: items}
			}
		} else {
			claimed, err = s.orders.MarkStatus(ctx, tx, event.MerchantRef, event.Status, reference, now)
			if err != nil {
				return err
			}
			if claimed {
				order.PaymentStatus = event.Status
				applied = &transition{order: order}
			}
		}
		if claimed {
			return nil
		}

		current, err := s.orders.FindByMerchantRef(ctx, tx, event.MerchantRef)
		if err != nil {
			return err
		}
		if current == nil {
			return orderdomain.ErrOrderNotFound
		}
		return classifyRepeat(current.PaymentStatus, event.Status)
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func classifyRepeat(stored, incoming orderdomain.PaymentStatus) error {
	if stored == incoming {
		return nil
	}
	return paymentdomain.ErrStatusConflict
}

// afterCommit runs the side effects of an applied transition. Failures are
// logged and never undo the committed state.
func (s *Service) afterCommit(ctx context.Context, log *zap.Logger, event *paymentdomain.PaymentEvent, applied *transition) {
	action := auditdomain.ActionOrderPaid
	switch event.Status {
	case orderdomain.StatusExpired:
		action = auditdomain.ActionOrderExpired
	case orderdomain.StatusFailed:
		action = auditdomain.ActionOrderFailed
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, auditdomain.Entry{
			Actor:      auditdomain.ActorTypeGateway,
			ActorID:    event.Provider,
			Action:     action,
			TargetType: "order",
			TargetID:   event.MerchantRef,
			Metadata: map[string]any{
				"reference":      event.Reference,
				"amount":         event.Amount,
				"customer_email": applied.order.CustomerEmail,
				"entitlements":   len(applied.entitlements),
			},
		})
		if err != nil {
			log.Warn("failed to audit payment callback", zap.Error(err))
		}
	}

	if event.Status != orderdomain.StatusPaid || s.email == nil {
		return
	}
	msg, err := s.confirmation(applied)
	if err != nil {
		log.Warn("failed to build order confirmation", zap.Error(err))
		return
	}
	if err := email.SendOrderConfirmation(ctx, s.email, msg); err != nil {
		log.Warn("failed to send order confirmation", zap.Error(err))
	}
}

func (s *Service) confirmation(applied *transition) (email.OrderConfirmation, error) {
	order := applied.order
	items, err := order.LineItems()
	if err != nil {
		return email.OrderConfirmation{}, err
	}

	siteURL := strings.TrimRight(s.cfg.Storefront.SiteURL, "/")
	msg := email.OrderConfirmation{
		MerchantRef:  order.MerchantRef,
		CustomerName: order.CustomerName,
		Email:        order.CustomerEmail,
		Amount:       order.Amount,
		ValidDays:    int(s.cfg.Storefront.DownloadWindow / (24 * time.Hour)),
		MaxDownloads: s.cfg.Storefront.MaxDownloads,
		OrderURL:     siteURL + "/order/" + order.MerchantRef,
	}
	for _, item := range items {
		msg.Items = append(msg.Items, email.OrderLine{Name: item.Name, Quantity: item.Quantity})
	}
	for _, ent := range applied.entitlements {
		if !orderdomain.Downloadable(items, ent.LineIndex) {
			continue
		}
		msg.Downloads = append(msg.Downloads, email.DownloadLink{
			Name: items[ent.LineIndex].Name,
			URL:  siteURL + "/api/download/" + ent.DownloadToken,
		})
	}
	return msg, nil
}
