package prescription

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/prescription"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware) {
	prescribers := mw.RequireRole(model.RoleAdmin, model.RoleDoctor)

	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.POST("", prescribers, middleware.Scoped(h.CreatePrescription))
		prescriptions.GET("", mw.RequireRole(model.AllRoles...), middleware.Scoped(h.ListPrescriptions))
		prescriptions.GET("/:id", mw.RequireRole(model.AllRoles...), middleware.Scoped(h.GetPrescription))
		prescriptions.PUT("/:id", prescribers, middleware.Scoped(h.UpdatePrescription))
		prescriptions.DELETE("/:id", mw.RequireRole(model.RoleAdmin), middleware.Scoped(h.DeletePrescription))
	}
}

func (h *Handler) CreatePrescription(c *gin.Context, rc model.RequestContext) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.CreatePrescription(c.Request.Context(), rc, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetPrescription(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPrescription(c.Request.Context(), rc, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdatePrescription(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.UpdatePrescription(c.Request.Context(), rc, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) DeletePrescription(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePrescription(c.Request.Context(), rc, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "prescription deleted successfully")
}

func (h *Handler) ListPrescriptions(c *gin.Context, rc model.RequestContext) {
	var filter model.PrescriptionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	var ok bool
	if filter.PatientID, ok = httputil.QueryUUID(c, "patient_id"); !ok {
		return
	}
	if filter.DoctorID, ok = httputil.QueryUUID(c, "doctor_id"); !ok {
		return
	}

	prescriptions, err := h.service.ListPrescriptions(c.Request.Context(), rc, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, prescriptions)
}
