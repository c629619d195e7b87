package notification

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

// Service records directed messages on the user and admin channels.
type Service interface {
	NotifyAdmin(ctx context.Context, message, typ string) (*model.Notification, error)
	NotifyUser(ctx context.Context, user *model.User, message, typ string) (*model.Notification, error)
	CreateNotification(ctx context.Context, userID int64, message, typ string) (*model.Notification, error)
	GetUserNotifications(ctx context.Context, userID int64) ([]*model.Notification, error)
	GetAdminNotifications(ctx context.Context) ([]*model.Notification, error)
	MarkAsRead(ctx context.Context, id int64, actor *model.Actor) (*model.Notification, error)
	DeleteNotification(ctx context.Context, id int64, actor *model.Actor) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	MarkAllAdminNotificationsAsRead(ctx context.Context) (int64, error)
}

type service struct {
	repo      repository.NotificationRepository
	userRepo  repository.UserRepository
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewService wires the notification store. publisher and m may be nil.
func NewService(repo repository.NotificationRepository, userRepo repository.UserRepository,
	publisher Publisher, m *metrics.Metrics) Service {
	return &service{
		repo:      repo,
		userRepo:  userRepo,
		publisher: publisher,
		metrics:   m,
	}
}

func (s *service) NotifyAdmin(ctx context.Context, message, typ string) (*model.Notification, error) {
	return s.store(ctx, model.NewAdminNotification(message, typ))
}

func (s *service) NotifyUser(ctx context.Context, user *model.User, message, typ string) (*model.Notification, error) {
	return s.store(ctx, model.NewUserNotification(user, message, typ))
}

func (s *service) CreateNotification(ctx context.Context, userID int64, message, typ string) (*model.Notification, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	return s.NotifyUser(ctx, user, message, typ)
}

// store inserts n and then hands it to the publisher. Publishing never
// fails the insert.
func (s *service) store(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if err := s.repo.Create(ctx, n); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to create notification: %w", err))
	}
	if s.metrics != nil {
		s.metrics.NotificationsCreated.WithLabelValues(string(n.RecipientType)).Inc()
	}

	s.publish(ctx, n)
	return n, nil
}

func (s *service) publish(ctx context.Context, n *model.Notification) {
	if s.publisher == nil {
		return
	}
	status := "ok"
	if err := s.publisher.Publish(ctx, n); err != nil {
		status = "error"
		log.Warn().Err(err).
			Int64("notification_id", n.ID).
			Str("recipient", string(n.RecipientType)).
			Msg("failed to publish notification")
	}
	if s.metrics != nil {
		s.metrics.NotificationsPublished.WithLabelValues("broker", status).Inc()
	}
}

func (s *service) GetUserNotifications(ctx context.Context, userID int64) ([]*model.Notification, error) {
	list, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list notifications: %w", err))
	}
	return list, nil
}

func (s *service) GetAdminNotifications(ctx context.Context) ([]*model.Notification, error) {
	list, err := s.repo.ListForAdmin(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list notifications: %w", err))
	}
	return list, nil
}

// authorize loads the notification and checks the actor owns it or is an admin.
func (s *service) authorize(ctx context.Context, id int64, actor *model.Actor) (*model.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("notification", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to get notification: %w", err))
	}
	if !actor.IsAdmin() && !n.OwnedBy(actor.UserID) {
		return nil, errors.Forbidden("you do not have permission to modify this notification")
	}
	return n, nil
}

func (s *service) MarkAsRead(ctx context.Context, id int64, actor *model.Actor) (*model.Notification, error) {
	n, err := s.authorize(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}

	n.IsRead = true
	if err := s.repo.Update(ctx, n); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("notification", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to update notification: %w", err))
	}
	return n, nil
}

func (s *service) DeleteNotification(ctx context.Context, id int64, actor *model.Actor) error {
	if _, err := s.authorize(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("notification", err)
		}
		return errors.Internal(fmt.Errorf("failed to delete notification: %w", err))
	}
	return nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllReadForUser(ctx, userID)
	if err != nil {
		return 0, errors.Internal(fmt.Errorf("failed to mark notifications read: %w", err))
	}
	return n, nil
}

func (s *service) MarkAllAdminNotificationsAsRead(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkAllReadForAdmin(ctx)
	if err != nil {
		return 0, errors.Internal(fmt.Errorf("failed to mark admin notifications read: %w", err))
	}
	return n, nil
}
