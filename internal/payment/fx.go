package payment

import (
	"github.com/smallbiznis/narzo/internal/payment/adapters"
	"github.com/smallbiznis/narzo/internal/payment/adapters/tripay"
	"github.com/smallbiznis/narzo/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(func() adapters.Registry {
		return adapters.NewRegistry(tripay.NewFactory())
	}),
	fx.Provide(tripay.NewClient),
	fx.Provide(tripay.NewGateway),
	fx.Provide(webhook.NewService),
)
