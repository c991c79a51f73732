package service

import (
	"strings"

	"github.com/smallbiznis/narzo/internal/apikey/domain"
	"github.com/smallbiznis/narzo/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// Service authenticates against the single configured admin key. Only its
// digest is kept in memory.
type Service struct {
	keyHash string
}

func New(p Params) domain.Authenticator {
	raw := strings.TrimSpace(p.Cfg.AdminAPIKey)
	if raw == "" {
		p.Log.Named("apikey.service").Warn("ADMIN_API_KEY not set, admin endpoints disabled")
		return &Service{}
	}
	return &Service{keyHash: domain.HashAPIKey(raw)}
}

func (s *Service) Enabled() bool {
	return s.keyHash != ""
}

func (s *Service) Verify(raw string) error {
	if !s.Enabled() {
		return domain.ErrDisabled
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ErrMissingKey
	}
	if !domain.EqualHash(domain.HashAPIKey(raw), s.keyHash) {
		return domain.ErrInvalidKey
	}
	return nil
}
