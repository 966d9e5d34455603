package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw *middleware.AuthMiddleware) {
	anyStaff := mw.RequireRole(model.AllRoles...)

	appointments := r.Group("/appointments")
	{
		appointments.POST("", anyStaff, middleware.Scoped(h.CreateAppointment))
		appointments.GET("", anyStaff, middleware.Scoped(h.ListAppointments))
		appointments.GET("/:id", anyStaff, middleware.Scoped(h.GetAppointment))
		appointments.PUT("/:id", anyStaff, middleware.Scoped(h.UpdateAppointment))
		appointments.DELETE("/:id", mw.RequireRole(model.RoleAdmin, model.RoleReceptionist), middleware.Scoped(h.DeleteAppointment))
	}
}

func (h *Handler) CreateAppointment(c *gin.Context, rc model.RequestContext) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appt, err := h.service.CreateAppointment(c.Request.Context(), rc, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

func (h *Handler) GetAppointment(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	appt, err := h.service.GetAppointment(c.Request.Context(), rc, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

// UpdateAppointment also drives registration: a status of "registered" on an
// appointment without a patient record promotes it to one.
func (h *Handler) UpdateAppointment(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appt, err := h.service.UpdateAppointment(c.Request.Context(), rc, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) DeleteAppointment(c *gin.Context, rc model.RequestContext) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAppointment(c.Request.Context(), rc, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "appointment deleted successfully")
}

func (h *Handler) ListAppointments(c *gin.Context, rc model.RequestContext) {
	var filter model.AppointmentFilter
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

	appointments, total, err := h.service.ListAppointments(c.Request.Context(), rc, &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, appointments, filter.Page, filter.PageSize, total)
}
