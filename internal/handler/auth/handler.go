package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	svc          *auth.Service
	secureCookie bool
}

func NewHandler(svc *auth.Service, secureCookie bool) *Handler {
	return &Handler{
		svc:          svc,
		secureCookie: secureCookie,
	}
}

// RegisterRoutes mounts the public auth endpoints on public and the
// session endpoints on protected. loginLimit guards register and login.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup, mw *middleware.AuthMiddleware, loginLimit gin.HandlerFunc) {
	authPublic := public.Group("/auth")
	{
		authPublic.POST("/register", loginLimit, h.Register)
		authPublic.POST("/login", loginLimit, h.Login)
		authPublic.POST("/logout", h.Logout)
	}

	authProtected := protected.Group("/auth", mw.RequireRole(model.AllRoles...))
	{
		authProtected.GET("/me", middleware.Scoped(h.Me))
		authProtected.PUT("/password", middleware.Scoped(h.ChangePassword))
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.setCookie(c, resp.Token)
	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.setCookie(c, resp.Token)
	httputil.RespondWithSuccess(c, resp)
}

// Logout clears the session cookie. Tokens are stateless and stay valid
// until they expire.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	httputil.RespondWithMessage(c, "logged out successfully")
}

func (h *Handler) Me(c *gin.Context, rc model.RequestContext) {
	user, err := h.svc.Me(c.Request.Context(), rc)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) ChangePassword(c *gin.Context, rc model.RequestContext) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), rc, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "password updated")
}

func (h *Handler) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.svc.TTL().Seconds()), "/", "", h.secureCookie, true)
}
