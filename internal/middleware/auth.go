package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const (
	// TokenCookie carries the session token for browser clients
	TokenCookie = "token"

	contextClaims    = "auth_claims"
	contextPrincipal = "principal"
	contextScope     = "tenant_scope"
)

// Authenticator verifies tokens and resolves them to principals
type Authenticator interface {
	VerifyToken(token string) (*model.TokenClaims, error)
	LoadPrincipal(ctx context.Context, claims *model.TokenClaims) (*model.Principal, error)
}

type AuthMiddleware struct {
	auth    Authenticator
	metrics *metrics.Metrics
}

func NewAuthMiddleware(authenticator Authenticator, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		auth:    authenticator,
		metrics: m,
	}
}

// Chain returns the full protected-route pipeline in its fixed order
func (m *AuthMiddleware) Chain(roles ...model.Role) []gin.HandlerFunc {
	return append(m.Protected(), m.RequireRole(roles...))
}

// Protected returns the stages shared by every protected group. Routes add
// their own RequireRole.
func (m *AuthMiddleware) Protected() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Authenticate(),
		m.LoadPrincipal(),
		m.TenantScope(),
	}
}

// Authenticate verifies the bearer token, or the session cookie when no
// Authorization header is sent, and stores its claims.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.auth.VerifyToken(credential(c))
		if err != nil {
			m.reject(c, err)
			return
		}
		c.Set(contextClaims, claims)
		c.Next()
	}
}

// LoadPrincipal resolves the verified claims to the stored, active user
func (m *AuthMiddleware) LoadPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(contextClaims)
		claims, _ := v.(*model.TokenClaims)
		if !ok || claims == nil {
			m.reject(c, auth.ErrNoCredential)
			return
		}

		principal, err := m.auth.LoadPrincipal(c.Request.Context(), claims)
		if err != nil {
			m.reject(c, err)
			return
		}

		c.Set(contextPrincipal, *principal)
		logger := zerolog.Ctx(c.Request.Context()).With().
			Str("user_id", principal.UserID.String()).
			Str("clinic_id", principal.ClinicID.String()).
			Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

// TenantScope requires a clinic on the principal and attaches the scope
// every repository call takes.
func (m *AuthMiddleware) TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			m.reject(c, auth.ErrNoPrincipal)
			return
		}
		if principal.ClinicID == uuid.Nil {
			m.reject(c, auth.ErrMissingTenant)
			return
		}
		c.Set(contextScope, model.TenantScope{ClinicID: principal.ClinicID})
		c.Next()
	}
}

// RequireRole admits principals whose role is in roles
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			m.reject(c, auth.ErrNoPrincipal)
			return
		}
		if !principal.HasRole(roles...) {
			m.metrics.AuthFailures.WithLabelValues("insufficient_role").Inc()
			httputil.RespondWithError(c, apperrors.Forbidden("insufficient role"))
			return
		}
		c.Next()
	}
}

// reject answers 401 for authentication failures and counts them by
// reason. Lookup failures of other kinds pass through unchanged.
func (m *AuthMiddleware) reject(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok && appErr.Kind != apperrors.KindUnauthorized {
		httputil.RespondWithError(c, err)
		return
	}
	m.metrics.AuthFailures.WithLabelValues(auth.Reason(err)).Inc()
	if _, ok := apperrors.As(err); !ok {
		err = apperrors.Unauthorized(err)
	}
	httputil.RespondWithError(c, err)
}

// credential reads the Authorization header, falling back to the cookie.
// A present but malformed header is not retried against the cookie.
func credential(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "malformed"
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// GetPrincipal returns the principal attached by LoadPrincipal
func GetPrincipal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(contextPrincipal)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// GetRequestContext returns the principal and scope of a protected request
func GetRequestContext(c *gin.Context) (model.RequestContext, bool) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return model.RequestContext{}, false
	}
	v, ok := c.Get(contextScope)
	if !ok {
		return model.RequestContext{}, false
	}
	scope, ok := v.(model.TenantScope)
	return model.RequestContext{Principal: principal, Scope: scope}, ok
}

// Scoped adapts a handler that needs the typed request context. Routes
// mounted without the auth chain answer 401.
func Scoped(h func(c *gin.Context, rc model.RequestContext)) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := GetRequestContext(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(auth.ErrMissingTenant))
			return
		}
		h(c, rc)
	}
}
