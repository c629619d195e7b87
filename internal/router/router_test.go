package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pulse-api/internal/config"
	appointmentHandler "github.com/jwalitptl/pulse-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/pulse-api/internal/handler/auth"
	dashboardHandler "github.com/jwalitptl/pulse-api/internal/handler/dashboard"
	"github.com/jwalitptl/pulse-api/internal/handler/health"
	labResultHandler "github.com/jwalitptl/pulse-api/internal/handler/labresult"
	notificationHandler "github.com/jwalitptl/pulse-api/internal/handler/notification"
	profileHandler "github.com/jwalitptl/pulse-api/internal/handler/profile"
	promHandler "github.com/jwalitptl/pulse-api/internal/handler/prometheus"
	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/repository/memory"
	appointmentService "github.com/jwalitptl/pulse-api/internal/service/appointment"
	authService "github.com/jwalitptl/pulse-api/internal/service/auth"
	dashboardService "github.com/jwalitptl/pulse-api/internal/service/dashboard"
	labResultService "github.com/jwalitptl/pulse-api/internal/service/labresult"
	notificationService "github.com/jwalitptl/pulse-api/internal/service/notification"
	profileService "github.com/jwalitptl/pulse-api/internal/service/profile"
	userService "github.com/jwalitptl/pulse-api/internal/service/user"
	"github.com/jwalitptl/pulse-api/internal/storage"
	"github.com/jwalitptl/pulse-api/pkg/auth"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
	"github.com/jwalitptl/pulse-api/pkg/security"
	"github.com/jwalitptl/pulse-api/pkg/validator"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterWithGin())

	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", reg)

	blobs, err := storage.New(ctx, config.StorageConfig{
		Backend: "local",
		Local:   config.LocalConfig{Dir: t.TempDir()},
	})
	require.NoError(t, err)

	jwtSvc := auth.NewJWTService("test-secret", time.Hour, "pulse-test")
	hasher := security.NewBcryptHasher(4)

	authSvc := authService.NewService(repos.Users, jwtSvc, hasher, "@clinic.test")
	userSvc := userService.NewService(repos.Users, hasher)
	notifSvc := notificationService.NewService(repos.Notifications, repos.Users, nil, m)
	appointmentSvc := appointmentService.NewService(repos.Appointments, repos.Users, notifSvc, m)
	labSvc := labResultService.NewService(repos.LabResults, repos.Users, notifSvc, blobs, m)
	profileSvc := profileService.NewService(repos.Profiles, repos.Users, userSvc)
	dashSvc := dashboardService.NewService(repos, 0, m)
	appointmentSvc.OnChange(dashSvc.Invalidate)

	r := NewRouter(middleware.NewAuthMiddleware(authSvc), Handlers{
		Auth:         authHandler.NewHandler(authSvc, userSvc),
		Appointment:  appointmentHandler.NewHandler(appointmentSvc),
		Notification: notificationHandler.NewHandler(notifSvc),
		LabResult:    labResultHandler.NewHandler(labSvc, 1<<20),
		Profile:      profileHandler.NewHandler(profileSvc),
		Dashboard:    dashboardHandler.NewHandler(dashSvc),
		Health:       health.NewHandler(nil),
		Metrics:      promHandler.New(reg),
	}, m, RouterConfig{RateLimit: rl})
	r.Setup()

	return &testServer{t: t, engine: r.Engine()}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *testServer) signup(email string) (token string, patientID string) {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		User struct {
			PatientID *string `json:"patientId"`
		} `json:"user"`
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	if resp.User.PatientID != nil {
		patientID = *resp.User.PatientID
	}
	return resp.Token.AccessToken, patientID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	patientToken, pid := s.signup("pat@example.com")
	assert.NotEmpty(t, pid)
	adminToken, adminPID := s.signup("boss@clinic.test")
	assert.Empty(t, adminPID)

	w, _ := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "PAT@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "pat@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Login successful")

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "pat@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/auth/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/auth/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/auth/users", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/auth/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, env), 2)
	assert.NotContains(t, w.Body.String(), "password")

	w, _ = s.do(http.MethodGet, "/api/v1/auth/user/"+pid, patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	otherToken, _ := s.signup("other@example.com")
	w, _ = s.do(http.MethodGet, "/api/v1/auth/user/"+pid, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/v1/auth/delete/"+pid, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the deleted user's token no longer authenticates
	w, _ = s.do(http.MethodGet, "/api/v1/notifications/user", patientToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAppointmentLifecycle(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	patientToken, _ := s.signup("pat@example.com")
	adminToken, _ := s.signup("boss@clinic.test")

	w, _ := s.do(http.MethodPost, "/api/v1/appointments", adminToken, gin.H{"testType": "Blood", "date": tomorrow(), "time": "09:30"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/appointments", patientToken, gin.H{"testType": "Blood", "date": "31-12-2030", "time": "09:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/appointments", patientToken, gin.H{"testType": "Blood", "date": tomorrow(), "time": "09:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	apt := decode[struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}](t, env)
	assert.Equal(t, "pending", apt.Status)
	aptPath := fmt.Sprintf("/api/v1/appointments/%d", apt.ID)

	w, env = s.do(http.MethodGet, "/api/v1/notifications/admin", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, env), 1)

	w, _ = s.do(http.MethodPatch, aptPath+"/status", adminToken, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPatch, aptPath+"/status", adminToken, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", decode[map[string]interface{}](t, env)["status"])

	w, env = s.do(http.MethodGet, "/api/v1/notifications/user", patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	notices := decode[[]struct {
		ID int64 `json:"id"`
	}](t, env)
	require.Len(t, notices, 1)

	w, _ = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/notifications/%d/read", notices[0].ID), patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodPatch, "/api/v1/notifications/mark-all-read", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, env)["affected"])

	w, env = s.do(http.MethodGet, "/api/v1/appointments?status=confirmed", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, env), 1)

	w, _ = s.do(http.MethodGet, "/api/v1/appointments?status=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPatch, aptPath, patientToken, gin.H{"time": "11:00"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode[map[string]interface{}](t, env)["status"])

	w, env = s.do(http.MethodPatch, aptPath+"/status", adminToken, gin.H{"status": "disapproved"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(env.Data))

	w, env = s.do(http.MethodGet, "/api/v1/appointments/me", patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, env), 0)

	w, _ = s.do(http.MethodDelete, aptPath, patientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLabResultUploadAndDownload(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	patientToken, pid := s.signup("pat@example.com")
	adminToken, _ := s.signup("boss@clinic.test")
	otherToken, _ := s.signup("other@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("testType", "Lipid Panel"))
	fw, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 lab data"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lab-results/upload/"+pid, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w, env := s.serve(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}](t, env)
	assert.Equal(t, "Lipid Panel", result.Title)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/lab-results/%d/send", result.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Result sent to user and notification triggered")

	w, env = s.do(http.MethodGet, "/api/v1/lab-results", patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, env), 1)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/lab-results/%d", result.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/lab-results/download/%d", result.ID), patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 lab data", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/lab-results/%d", result.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/lab-results/download/%d", result.ID), patientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileAndDashboard(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	patientToken, pid := s.signup("pat@example.com")
	adminToken, _ := s.signup("boss@clinic.test")
	otherToken, _ := s.signup("other@example.com")

	w, env := s.do(http.MethodPost, "/api/v1/profile", patientToken, gin.H{
		"name": "Pat Doe", "dateOfBirth": "1990-04-01", "gender": "female",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := decode[struct {
		ID int64 `json:"id"`
	}](t, env)

	w, _ = s.do(http.MethodPost, "/api/v1/profile", patientToken, gin.H{
		"name": "Pat Doe", "dateOfBirth": "1990-04-01", "gender": "female",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/profile/me", patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/profile/by-patient/"+pid, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/profile/%d", profile.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/profile", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/appointments", patientToken, gin.H{"testType": "X-Ray", "date": tomorrow(), "time": "08:15"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	stats := decode[struct {
		TotalPatients        int `json:"totalPatients"`
		UpcomingAppointments []struct {
			PatientName string `json:"patientName"`
			Time        string `json:"time"`
		} `json:"upcomingAppointments"`
	}](t, env)
	assert.Equal(t, 2, stats.TotalPatients)
	require.Len(t, stats.UpcomingAppointments, 1)
	assert.Equal(t, "Pat Doe", stats.UpcomingAppointments[0].PatientName)
	assert.Equal(t, "08:15", stats.UpcomingAppointments[0].Time)

	w, _ = s.do(http.MethodGet, "/api/v1/admin/dashboard", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/v1/profile/update-email", patientToken, gin.H{"email": "pat.new@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "pat.new@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/profile/%d", profile.ID), patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "pat.new@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOpsRoutesAndMiddleware(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2})

	w, _ := s.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set(middleware.HeaderXRequestID, "fixed-id")
	w, _ = s.serve(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fixed-id", w.Header().Get(middleware.HeaderXRequestID))
	assert.True(t, strings.Contains(w.Body.String(), "test_http_requests_total"))

	w, env := s.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "error", env.Status)
}
