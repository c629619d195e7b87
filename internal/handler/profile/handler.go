package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/handler"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/service/profile"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

type Handler struct {
	service *profile.Service
}

func NewHandler(service *profile.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profiles := r.Group("/profile")
	{
		profiles.POST("", h.CreateProfile)
		profiles.GET("", middleware.RequireRole(model.RoleAdmin), h.ListProfiles)
		profiles.GET("/me", h.GetMyProfile)
		profiles.GET("/by-patient/:patientId", h.GetProfileByPatientID)
		profiles.GET("/:id", h.GetProfile)
		profiles.PATCH("/update-email", h.UpdateEmail)
		profiles.PATCH("/:id", h.UpdateProfile)
		profiles.DELETE("/:id", h.DeleteProfile)
	}
}

func (h *Handler) CreateProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var req model.ProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.service.FindAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, profiles)
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	p, err := h.service.FindMine(c.Request.Context(), actor.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) GetProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.FindOne(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) GetProfileByPatientID(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	p, err := h.service.FindByPatientID(c.Request.Context(), c.Param("patientId"), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdateEmail(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var req model.UpdateCredentialsRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdateEmail(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

// DeleteProfile removes the profile together with its user account.
func (h *Handler) DeleteProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), id, actor); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "profile and user deleted", nil)
}
