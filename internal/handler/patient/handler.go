package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware) {
	anyStaff := mw.RequireRole(model.AllRoles...)

	patients := r.Group("/patients")
	{
		patients.POST("", anyStaff, middleware.Scoped(h.CreatePatient))
		patients.GET("", anyStaff, middleware.Scoped(h.ListPatients))
		patients.GET("/:id", anyStaff, middleware.Scoped(h.GetPatient))
		patients.PUT("/:id", anyStaff, middleware.Scoped(h.UpdatePatient))
		patients.DELETE("/:id", mw.RequireRole(model.RoleAdmin), middleware.Scoped(h.DeletePatient))
		patients.GET("/:id/appointments", anyStaff, middleware.Scoped(h.ListAppointments))
	}
}

func (h *Handler) CreatePatient(c *gin.Context, rc model.RequestContext) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), rc, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetPatient(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), rc, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdatePatient(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), rc, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) DeletePatient(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePatient(c.Request.Context(), rc, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "patient deleted successfully")
}

func (h *Handler) ListPatients(c *gin.Context, rc model.RequestContext) {
	var filter model.PatientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	doctorID, ok := httputil.QueryUUID(c, "doctor_id")
	if !ok {
		return
	}
	filter.AssignedDoctorID = doctorID

	patients, total, err := h.service.ListPatients(c.Request.Context(), rc, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	page := filter.Pagination.Normalize()
	httputil.RespondWithPagination(c, patients, page.Page, page.PageSize, total)
}

func (h *Handler) ListAppointments(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var filter model.AppointmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointments, total, err := h.service.ListAppointments(c.Request.Context(), rc, id, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	page := filter.Pagination.Normalize()
	httputil.RespondWithPagination(c, appointments, page.Page, page.PageSize, total)
}
