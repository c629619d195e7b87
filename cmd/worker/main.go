package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/pulse-api/internal/config"
	"github.com/jwalitptl/pulse-api/internal/email"
	healthHandler "github.com/jwalitptl/pulse-api/internal/handler/health"
	"github.com/jwalitptl/pulse-api/internal/server"
	"github.com/jwalitptl/pulse-api/internal/worker"
	"github.com/jwalitptl/pulse-api/pkg/logger"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

var (
	configPath  string
	skipCleanup bool
	skipMailer  bool
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the pulse background workers",
	Long: `Runs the notification cleanup worker and the notification mailer.

The mailer subscribes to the configured broker channel and emails every
patient-addressed notification. It is skipped when messaging is off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if configPath != "" {
			paths = append(paths, configPath)
		}
		cfg, err := config.LoadConfig(paths...)
		if err != nil {
			return err
		}

		logger.NewLogger(&logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		}).SetGlobal()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func run(ctx context.Context, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("pulse_worker", registry)

	persistence, err := server.OpenPersistence(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer persistence.Close()

	health := setupHealthCheck(cfg.Worker.HealthPort, registry, persistence.Pinger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = health.Shutdown(shutdownCtx)
	}()

	var wg sync.WaitGroup

	if !skipCleanup {
		cleanup := worker.NewNotificationCleanupWorker(
			persistence.Repos.Notifications,
			cfg.Worker.NotificationRetention,
			cfg.Worker.CleanupInterval,
			m,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			cleanup.Start(ctx)
		}()
	}

	if !skipMailer {
		broker, err := server.NewBroker(cfg.Messaging)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		if broker == nil {
			log.Warn().Msg("messaging is off; notification mailer not started")
		} else {
			defer broker.Close()

			mailer, err := email.NewService(cfg.SMTP)
			if err != nil {
				return err
			}
			nm := worker.NewNotificationMailer(broker, cfg.Messaging.Channel, persistence.Repos.Users, mailer, m)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := nm.Run(ctx); err != nil {
					log.Error().Err(err).Msg("notification mailer stopped")
				}
			}()
		}
	}

	<-ctx.Done()
	log.Info().Msg("shutting down workers...")
	wg.Wait()
	return nil
}

func setupHealthCheck(port int, registry *prometheus.Registry, db healthHandler.Pinger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()
	return srv
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config-dir", "", "directory containing config.yaml")
	rootCmd.Flags().BoolVar(&skipCleanup, "no-cleanup", false, "do not run the notification cleanup worker")
	rootCmd.Flags().BoolVar(&skipMailer, "no-mailer", false, "do not run the notification mailer")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
