package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *payment.Service
}

func NewHandler(service *payment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware) {
	billing := mw.RequireRole(model.RoleAdmin, model.RoleReceptionist)

	payments := r.Group("/payments")
	{
		payments.POST("", billing, middleware.Scoped(h.CreatePayment))
		payments.GET("", billing, middleware.Scoped(h.ListPayments))
		payments.GET("/:id", billing, middleware.Scoped(h.GetPayment))
		payments.PUT("/:id", billing, middleware.Scoped(h.UpdatePayment))
		payments.DELETE("/:id", mw.RequireRole(model.RoleAdmin), middleware.Scoped(h.DeletePayment))
	}
}

func (h *Handler) CreatePayment(c *gin.Context, rc model.RequestContext) {
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.CreatePayment(c.Request.Context(), rc, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetPayment(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(), rc, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdatePayment(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.UpdatePayment(c.Request.Context(), rc, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) DeletePayment(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePayment(c.Request.Context(), rc, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "payment deleted successfully")
}

func (h *Handler) ListPayments(c *gin.Context, rc model.RequestContext) {
	var filter model.PaymentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	var ok bool
	if filter.PatientID, ok = httputil.QueryUUID(c, "patient_id"); !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), rc, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}
