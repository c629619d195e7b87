package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

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
	"github.com/jwalitptl/pulse-api/internal/router"
	appointmentService "github.com/jwalitptl/pulse-api/internal/service/appointment"
	authService "github.com/jwalitptl/pulse-api/internal/service/auth"
	dashboardService "github.com/jwalitptl/pulse-api/internal/service/dashboard"
	labResultService "github.com/jwalitptl/pulse-api/internal/service/labresult"
	notificationService "github.com/jwalitptl/pulse-api/internal/service/notification"
	profileService "github.com/jwalitptl/pulse-api/internal/service/profile"
	userService "github.com/jwalitptl/pulse-api/internal/service/user"
	"github.com/jwalitptl/pulse-api/internal/storage"
	"github.com/jwalitptl/pulse-api/pkg/auth"
	"github.com/jwalitptl/pulse-api/pkg/messaging"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
	"github.com/jwalitptl/pulse-api/pkg/security"
	"github.com/jwalitptl/pulse-api/pkg/validator"
)

const metricsNamespace = "pulse"

// Server wraps the HTTP server and everything it owns.
type Server struct {
	httpServer  *http.Server
	persistence *Persistence
	broker      messaging.Broker
}

// New wires repositories, services and routes from cfg.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := validator.RegisterWithGin(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(metricsNamespace, registry)

	persistence, err := OpenPersistence(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	repos := persistence.Repos

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = persistence.Close()
		return nil, err
	}

	broker, err := NewBroker(cfg.Messaging)
	if err != nil {
		_ = persistence.Close()
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	var publisher notificationService.Publisher
	if broker != nil {
		publisher = notificationService.NewBrokerPublisher(broker, cfg.Messaging.Channel)
	}

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	authSvc := authService.NewService(repos.Users, jwtSvc, hasher, cfg.Auth.AdminEmailDomain)
	userSvc := userService.NewService(repos.Users, hasher)
	notifSvc := notificationService.NewService(repos.Notifications, repos.Users, publisher, m)
	appointmentSvc := appointmentService.NewService(repos.Appointments, repos.Users, notifSvc, m)
	labSvc := labResultService.NewService(repos.LabResults, repos.Users, notifSvc, blobs, m)
	profileSvc := profileService.NewService(repos.Profiles, repos.Users, userSvc)
	dashSvc := dashboardService.NewService(repos, cfg.Dashboard.CacheTTL, m)
	appointmentSvc.OnChange(dashSvc.Invalidate)

	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc), router.Handlers{
		Auth:         authHandler.NewHandler(authSvc, userSvc),
		Appointment:  appointmentHandler.NewHandler(appointmentSvc),
		Notification: notificationHandler.NewHandler(notifSvc),
		LabResult:    labResultHandler.NewHandler(labSvc, cfg.Server.MaxUploadBytes),
		Profile:      profileHandler.NewHandler(profileSvc),
		Dashboard:    dashboardHandler.NewHandler(dashSvc),
		Health:       health.NewHandler(map[string]health.Pinger{"database": persistence.Pinger}),
		Metrics:      promHandler.New(registry),
	}, m, router.RouterConfig{
		RateLimit: cfg.RateLimit,
		CORS:      cfg.CORS,
	})
	r.Setup()

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      r.Engine(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		persistence: persistence,
		broker:      broker,
	}, nil
}

// Handler exposes the routed engine.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the broker and the
// database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		if cerr := s.broker.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close broker")
		}
	}
	if cerr := s.persistence.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("failed to close database")
	}
	return err
}
