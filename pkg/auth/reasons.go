package auth

import "errors"

// Reasons a request is rejected as unauthenticated. They are logged and
// counted but never returned to the client.
var (
	ErrStaleCredential = errors.New("stale credential")
	ErrAccountDisabled = errors.New("account disabled")
	ErrMissingTenant   = errors.New("missing tenant context")
	ErrNoPrincipal     = errors.New("no principal")
)

// Reason maps an authentication failure to a short metrics label
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrStaleCredential):
		return "stale_credential"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrMissingTenant):
		return "missing_tenant"
	case errors.Is(err, ErrNoPrincipal):
		return "no_principal"
	default:
		return "other"
	}
}
