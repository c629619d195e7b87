package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/handler"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/service/auth"
	"github.com/jwalitptl/pulse-api/internal/service/user"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

type Handler struct {
	svc     *auth.Service
	userSvc user.UserServicer
}

func NewHandler(svc *auth.Service, userSvc user.UserServicer) *Handler {
	return &Handler{svc: svc, userSvc: userSvc}
}

// RegisterPublicRoutes mounts signup and login, which need no token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/users", middleware.RequireRole(model.RoleAdmin), h.ListUsers)
		auth.GET("/user/:patientId", h.GetUser)
		auth.DELETE("/delete/:patientId", h.DeleteUser)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Signup(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, resp)
}

func (h *Handler) ListUsers(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	users, err := h.userSvc.FindAll(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	u, err := h.userSvc.GetByPatientID(c.Request.Context(), c.Param("patientId"), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	if err := h.userSvc.Remove(c.Request.Context(), c.Param("patientId"), actor); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "user deleted", nil)
}
