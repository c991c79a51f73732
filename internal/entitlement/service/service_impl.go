package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/entitlement/domain"
	"github.com/smallbiznis/narzo/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	productdomain "github.com/smallbiznis/narzo/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const downloadTokenBytes = 32

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
	metrics     *metrics.Metrics

	maxDownloads   int
	downloadWindow time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("entitlement.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		productRepo:    p.ProductRepo,
		metrics:        p.Metrics,
		maxDownloads:   p.Cfg.Storefront.MaxDownloads,
		downloadWindow: p.Cfg.Storefront.DownloadWindow,
	}
}

func (s *Service) Provision(ctx context.Context, tx *gorm.DB, order *orderdomain.Order, paidAt time.Time) ([]domain.Entitlement, error) {
	lines, err := order.LineItems()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	paid := paidAt.UTC()
	items := make([]domain.Entitlement, 0, len(lines))
	for i, line := range lines {
		delivery, err := ulid.New(ulid.Timestamp(now), rand.Reader)
		if err != nil {
			return nil, err
		}
		download, err := newDownloadToken()
		if err != nil {
			return nil, err
		}
		items = append(items, domain.Entitlement{
			ID:              s.genID.Generate().Int64(),
			OrderID:         order.ID,
			MerchantRef:     order.MerchantRef,
			ProductID:       line.ProductID,
			LineIndex:       i,
			DeliveryToken:   delivery.String(),
			DownloadToken:   download,
			DownloadsUsed:   0,
			MaxDownloads:    s.maxDownloads,
			DownloadExpires: now.Add(s.downloadWindow),
			PaidAt:          &paid,
			CreatedAt:       now,
		})
	}
	if len(items) == 0 {
		return items, nil
	}

	if err := s.repo.Insert(ctx, tx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Redeem consumes one download. The quota and expiry are enforced by a
// conditional update, so concurrent redemptions never exceed max_downloads.
func (s *Service) Redeem(ctx context.Context, req domain.RedeemRequest) (*domain.Redemption, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		s.metrics.RecordDownload(ctx, "not_found")
		return nil, domain.ErrNotFound
	}

	var redemption *domain.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ent, err := s.repo.FindByDownloadToken(ctx, tx, token)
		if err != nil {
			return err
		}
		if ent == nil {
			return domain.ErrNotFound
		}

		now := s.clock.Now()
		if err := classify(ent, now); err != nil {
			return err
		}

		product, err := s.productRepo.FindByID(ctx, tx, ent.ProductID)
		if err != nil {
			return err
		}
		if product == nil || product.DownloadURL == nil || strings.TrimSpace(*product.DownloadURL) == "" {
			s.log.Error("entitlement has no downloadable file",
				zap.String("merchant_ref", ent.MerchantRef),
				zap.Int64("product_id", ent.ProductID),
			)
			return domain.ErrDownloadUnavailable
		}

		ok, err := s.repo.ConsumeDownload(ctx, tx, token, now)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.FindByDownloadToken(ctx, tx, token)
			if err != nil {
				return err
			}
			if latest == nil {
				return domain.ErrNotFound
			}
			if err := classify(latest, now); err != nil {
				return err
			}
			return domain.ErrLimitReached
		}

		if err := s.repo.InsertDownloadLog(ctx, tx, &domain.DownloadLog{
			ID:            s.genID.Generate().Int64(),
			EntitlementID: ent.ID,
			ProductID:     ent.ProductID,
			IPAddress:     optional(req.IPAddress),
			UserAgent:     optional(req.UserAgent),
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		ent.DownloadsUsed++
		redemption = &domain.Redemption{
			Entitlement: *ent,
			DownloadURL: strings.TrimSpace(*product.DownloadURL),
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordDownload(ctx, outcomeFor(err))
		return nil, err
	}

	s.metrics.RecordDownload(ctx, "success")
	s.log.Info("download redeemed",
		zap.String("merchant_ref", redemption.Entitlement.MerchantRef),
		zap.String("delivery_token", redemption.Entitlement.DeliveryToken),
		zap.Int("downloads_used", redemption.Entitlement.DownloadsUsed),
		zap.Int("max_downloads", redemption.Entitlement.MaxDownloads),
	)
	return redemption, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]domain.Entitlement, error) {
	return s.repo.ListByOrder(ctx, s.db, orderID)
}

func classify(ent *domain.Entitlement, now time.Time) error {
	if now.After(ent.DownloadExpires) {
		return domain.ErrExpired
	}
	if ent.DownloadsUsed >= ent.MaxDownloads {
		return domain.ErrLimitReached
	}
	return nil
}

func outcomeFor(err error) string {
	switch err {
	case domain.ErrNotFound:
		return "not_found"
	case domain.ErrExpired:
		return "expired"
	case domain.ErrLimitReached:
		return "limit_reached"
	case domain.ErrDownloadUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

func newDownloadToken() (string, error) {
	buf := make([]byte, downloadTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
