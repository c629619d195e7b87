package labresult

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/handler"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/service/labresult"
	apperrors "github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

const defaultMaxUploadBytes = 10 << 20

type Handler struct {
	service        *labresult.Service
	maxUploadBytes int64
}

func NewHandler(service *labresult.Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	results := r.Group("/lab-results")
	{
		results.POST("", adminOnly, h.CreateLabResult)
		results.POST("/upload/:patientId", adminOnly, h.UploadLabResult)
		results.POST("/:id/send", adminOnly, h.SendToUser)
		results.POST("/send/:patientId", adminOnly, h.SendToPatient)
		results.GET("", middleware.RequireRole(model.RolePatient), h.ListMyLabResults)
		results.GET("/admin", adminOnly, h.ListLabResults)
		results.GET("/download/:id", h.DownloadLabResult)
		results.GET("/:id", h.GetLabResult)
		results.PATCH("/:id", adminOnly, h.UpdateLabResult)
		results.DELETE("/:id", adminOnly, h.DeleteLabResult)
	}
}

func (h *Handler) CreateLabResult(c *gin.Context) {
	var req model.CreateLabResultRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, result)
}

// UploadLabResult accepts a multipart form with the report in "file" and an
// optional "testType" used as the title.
func (h *Handler) UploadLabResult(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("file is required", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("failed to read uploaded file", err))
		return
	}
	defer file.Close()

	upload := &model.LabResultUpload{
		Title:       c.PostForm("testType"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}

	result, err := h.service.Upload(c.Request.Context(), c.Param("patientId"), upload, file)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, result)
}

func (h *Handler) SendToUser(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp, err := h.service.SendToUser(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, resp)
}

func (h *Handler) SendToPatient(c *gin.Context) {
	resp, err := h.service.SendToUserByPatientID(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, resp)
}

func (h *Handler) ListMyLabResults(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	results, err := h.service.FindAllByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, results)
}

func (h *Handler) ListLabResults(c *gin.Context) {
	results, err := h.service.FindAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, results)
}

func (h *Handler) GetLabResult(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.FindOne(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, result)
}

func (h *Handler) UpdateLabResult(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateLabResultRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, result)
}

func (h *Handler) DeleteLabResult(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "lab result deleted", nil)
}

// DownloadLabResult streams the stored report as an attachment.
func (h *Handler) DownloadLabResult(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	rc, result, err := h.service.Download(c.Request.Context(), id, actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(result.FileKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, path.Base(result.FileKey)),
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, headers)
}
