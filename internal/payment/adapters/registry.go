package adapters

import (
	"strings"

	"github.com/smallbiznis/narzo/internal/payment/domain"
)

// Registry maps a provider name, as it appears in the callback route, to the
// factory building its adapter. Names are case-insensitive.
type Registry map[string]domain.AdapterFactory

func NewRegistry(factories ...domain.AdapterFactory) Registry {
	r := Registry{}
	for _, f := range factories {
		if f == nil {
			continue
		}
		if name := providerKey(f.Provider()); name != "" {
			r[name] = f
		}
	}
	return r
}

func (r Registry) ProviderExists(provider string) bool {
	_, ok := r[providerKey(provider)]
	return ok
}

// NewAdapter builds a provider adapter bound to the merchant credentials.
func (r Registry) NewAdapter(provider string, cfg domain.AdapterConfig) (domain.PaymentAdapter, error) {
	f, ok := r[providerKey(provider)]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return f.NewAdapter(cfg)
}

func providerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
