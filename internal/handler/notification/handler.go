package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/handler"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/service/notification"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	notifications := r.Group("/notifications")
	{
		notifications.POST("", adminOnly, h.CreateNotification)
		notifications.POST("/admin", adminOnly, h.NotifyAdmin)
		notifications.GET("/user", h.GetUserNotifications)
		notifications.GET("/admin", adminOnly, h.GetAdminNotifications)
		notifications.PATCH("/mark-all-read", h.MarkAllAsRead)
		notifications.PATCH("/:id/read", h.MarkAsRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req model.CreateNotificationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	n, err := h.service.CreateNotification(c.Request.Context(), req.UserID, req.Message, req.Type)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, n)
}

func (h *Handler) NotifyAdmin(c *gin.Context) {
	var req model.AdminNotificationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	n, err := h.service.NotifyAdmin(c.Request.Context(), req.Message, req.Type)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, n)
}

func (h *Handler) GetUserNotifications(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	list, err := h.service.GetUserNotifications(c.Request.Context(), actor.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) GetAdminNotifications(c *gin.Context) {
	list, err := h.service.GetAdminNotifications(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	n, err := h.service.MarkAsRead(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

// MarkAllAsRead clears the shared admin inbox for admins and the caller's own
// inbox otherwise.
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var (
		affected int64
		err      error
	)
	if actor.IsAdmin() {
		affected, err = h.service.MarkAllAdminNotificationsAsRead(c.Request.Context())
	} else {
		affected, err = h.service.MarkAllAsRead(c.Request.Context(), actor.UserID)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, model.MarkAllResult{Affected: affected})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteNotification(c.Request.Context(), id, actor); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "notification deleted", nil)
}
