package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorefrontPolicy is the optional YAML overlay for delivery and checkout policy.
type StorefrontPolicy struct {
	MerchantRefPrefix string        `mapstructure:"merchantRefPrefix"`
	MaxDownloads      int           `mapstructure:"maxDownloads"`
	DownloadWindow    time.Duration `mapstructure:"downloadWindow"`
	CheckoutExpiry    time.Duration `mapstructure:"checkoutExpiry"`
	ChannelsCacheTTL  time.Duration `mapstructure:"channelsCacheTTL"`
}

var (
	ErrInvalidMaxDownloads   = errors.New("storefront max downloads must be positive")
	ErrInvalidDownloadWindow = errors.New("storefront download window must be positive")
	ErrInvalidRefPrefix      = errors.New("storefront merchant ref prefix is required")
)

// New loads the environment configuration and applies the storefront policy
// file when one is configured. The file is read once; later edits need a restart.
func New() (Config, error) {
	cfg := Load()
	if cfg.Storefront.PolicyFile != "" {
		policy, err := LoadStorefrontPolicy(cfg.Storefront.PolicyFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Storefront = policy.apply(cfg.Storefront)
	}
	if err := cfg.Storefront.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadStorefrontPolicy(path string) (StorefrontPolicy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return StorefrontPolicy{}, fmt.Errorf("read storefront policy: %w", err)
	}

	var policy StorefrontPolicy
	if err := v.UnmarshalKey("storefront", &policy); err != nil {
		return StorefrontPolicy{}, fmt.Errorf("decode storefront policy: %w", err)
	}
	return policy, nil
}

func (p StorefrontPolicy) apply(base StorefrontConfig) StorefrontConfig {
	if prefix := strings.TrimSpace(p.MerchantRefPrefix); prefix != "" {
		base.MerchantRefPrefix = prefix
	}
	if p.MaxDownloads != 0 {
		base.MaxDownloads = p.MaxDownloads
	}
	if p.DownloadWindow != 0 {
		base.DownloadWindow = p.DownloadWindow
	}
	if p.CheckoutExpiry != 0 {
		base.CheckoutExpiry = p.CheckoutExpiry
	}
	if p.ChannelsCacheTTL != 0 {
		base.ChannelsCacheTTL = p.ChannelsCacheTTL
	}
	return base
}

func (c StorefrontConfig) Validate() error {
	if strings.TrimSpace(c.MerchantRefPrefix) == "" {
		return ErrInvalidRefPrefix
	}
	if c.MaxDownloads <= 0 {
		return ErrInvalidMaxDownloads
	}
	if c.DownloadWindow <= 0 {
		return ErrInvalidDownloadWindow
	}
	return nil
}
