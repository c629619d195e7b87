package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/handler"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/service/appointment"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patientOnly := middleware.RequireRole(model.RolePatient)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	appointments := r.Group("/appointments")
	{
		appointments.POST("", patientOnly, h.CreateAppointment)
		appointments.GET("", adminOnly, h.ListAppointments)
		appointments.GET("/me", patientOnly, h.ListMyAppointments)
		appointments.PATCH("/:id", patientOnly, h.UpdateAppointment)
		appointments.PATCH("/:id/status", adminOnly, h.SetStatus)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appointment, err := h.service.Create(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, appointment)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appointment, err := h.service.Update(c.Request.Context(), id, actor.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}

// DeleteAppointment removes any appointment for admins and only the
// caller's own for patients.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if actor.IsAdmin() {
		err = h.service.DeleteByAdmin(c.Request.Context(), id)
	} else {
		err = h.service.DeleteForPatient(c.Request.Context(), id, actor.UserID)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "appointment deleted", nil)
}

func (h *Handler) ListMyAppointments(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	appointments, err := h.service.ListForPatient(c.Request.Context(), actor.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var status *model.AppointmentStatus
	if s := c.Query("status"); s != "" {
		st := model.AppointmentStatus(s)
		status = &st
	}

	appointments, err := h.service.ListAll(c.Request.Context(), status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.AppointmentStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appointment, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if appointment == nil {
		httputil.RespondWithMessage(c, http.StatusOK, "appointment disapproved and removed", nil)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appointment)
}
