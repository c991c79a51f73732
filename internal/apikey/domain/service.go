package domain

import "errors"

// Authenticator checks raw admin keys presented on requests.
type Authenticator interface {
	Enabled() bool
	Verify(raw string) error
}

var (
	ErrMissingKey = errors.New("missing_api_key")
	ErrInvalidKey = errors.New("invalid_api_key")
	ErrDisabled   = errors.New("admin_api_disabled")
)
