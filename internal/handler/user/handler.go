package user

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service user.UserServicer
}

func NewHandler(service user.UserServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware) {
	adminOnly := mw.RequireRole(model.RoleAdmin)

	users := r.Group("/users")
	{
		// registered before /:id so the static segment wins
		users.GET("/doctors", mw.RequireRole(model.AllRoles...), middleware.Scoped(h.ListDoctors))

		users.POST("", adminOnly, middleware.Scoped(h.CreateUser))
		users.GET("", adminOnly, middleware.Scoped(h.ListUsers))
		users.GET("/:id", adminOnly, middleware.Scoped(h.GetUser))
		users.PUT("/:id", adminOnly, middleware.Scoped(h.UpdateUser))
		users.PATCH("/:id/status", adminOnly, middleware.Scoped(h.UpdateStatus))
		users.DELETE("/:id", adminOnly, middleware.Scoped(h.DeleteUser))
	}
}

func (h *Handler) CreateUser(c *gin.Context, rc model.RequestContext) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), rc, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}

func (h *Handler) GetUser(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), rc, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateUser(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.UpdateUser(c.Request.Context(), rc, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateStatus(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	u, err := h.service.UpdateStatus(c.Request.Context(), rc, id, *req.IsActive)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) DeleteUser(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), rc, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "user deleted successfully")
}

func (h *Handler) ListUsers(c *gin.Context, rc model.RequestContext) {
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), rc, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	page := filter.Pagination.Normalize()
	httputil.RespondWithPagination(c, users, page.Page, page.PageSize, total)
}

func (h *Handler) ListDoctors(c *gin.Context, rc model.RequestContext) {
	doctors, err := h.service.ListDoctors(c.Request.Context(), rc)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}
