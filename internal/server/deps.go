package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pulse-api/internal/config"
	"github.com/jwalitptl/pulse-api/internal/handler/health"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/repository/memory"
	"github.com/jwalitptl/pulse-api/internal/repository/postgres"
	"github.com/jwalitptl/pulse-api/pkg/messaging"
	"github.com/jwalitptl/pulse-api/pkg/messaging/rabbitmq"
	"github.com/jwalitptl/pulse-api/pkg/messaging/redis"
)

const memoryBrokerBuffer = 64

// Persistence is an opened repository set plus what is needed to check and
// release it.
type Persistence struct {
	Repos   *repository.Repositories
	Pinger  health.Pinger
	closeFn func() error
}

func (p *Persistence) Close() error {
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

// OpenPersistence connects the configured database driver, applying
// migrations first when migrate_on_start is set.
func OpenPersistence(ctx context.Context, cfg config.DatabaseConfig) (*Persistence, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn().Msg("using in-memory repositories; data is lost on restart")
		return &Persistence{Repos: memory.NewStore().Repositories()}, nil
	case "postgres":
		if cfg.MigrateOnStart {
			if err := postgres.MigrateUp(cfg.URL()); err != nil {
				return nil, err
			}
			log.Info().Msg("database migrations applied")
		}
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, err
		}
		return &Persistence{
			Repos:   postgres.NewRepositories(db),
			Pinger:  db,
			closeFn: db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewBroker returns the configured broker, or nil when messaging is off.
func NewBroker(cfg config.MessagingConfig) (messaging.Broker, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return messaging.NewMemoryBroker(memoryBrokerBuffer), nil
	case "redis":
		return redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.Logger)
	case "rabbitmq":
		return rabbitmq.NewRabbitBroker(rabbitmq.Config{
			URL:           cfg.RabbitMQ.URL,
			QueueDurable:  cfg.RabbitMQ.QueueDurable,
			PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		}, &log.Logger)
	default:
		return nil, fmt.Errorf("unsupported messaging backend %q", cfg.Backend)
	}
}
