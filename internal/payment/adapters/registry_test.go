package adapters_test

import (
	"testing"

	"github.com/smallbiznis/narzo/internal/payment/adapters"
	"github.com/smallbiznis/narzo/internal/payment/adapters/tripay"
	"github.com/smallbiznis/narzo/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolvesProviderCaseInsensitively(t *testing.T) {
	registry := adapters.NewRegistry(nil, tripay.NewFactory())

	assert.True(t, registry.ProviderExists(" TriPay "))
	assert.False(t, registry.ProviderExists("midtrans"))

	adapter, err := registry.NewAdapter("TRIPAY", domain.AdapterConfig{MerchantCode: "T0001", PrivateKey: "secret"})
	require.NoError(t, err)
	assert.NotNil(t, adapter)

	_, err = registry.NewAdapter("midtrans", domain.AdapterConfig{})
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}
