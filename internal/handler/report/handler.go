package report

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/report"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware) {
	reports := r.Group("/reports", mw.RequireRole(model.RoleAdmin))
	{
		reports.GET("/summary", middleware.Scoped(h.Summary))
		reports.GET("/doctors", middleware.Scoped(h.DoctorStats))
	}
}

func (h *Handler) Summary(c *gin.Context, rc model.RequestContext) {
	var rng model.ReportRange
	if err := c.ShouldBindQuery(&rng); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), rc, rng)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) DoctorStats(c *gin.Context, rc model.RequestContext) {
	var rng model.ReportRange
	if err := c.ShouldBindQuery(&rng); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	stats, err := h.service.DoctorStats(c.Request.Context(), rc, rng)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
