package worker

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pulse-api/internal/email"
	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/service/notification"
	"github.com/jwalitptl/pulse-api/pkg/circuitbreaker"
	"github.com/jwalitptl/pulse-api/pkg/messaging"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

var subjects = map[string]string{
	model.NotificationLabResult:          "Your lab result is ready",
	model.NotificationAppointmentDeleted: "Your appointment was cancelled",
	model.NotificationAdminDeleted:       "Your appointment was cancelled",
	model.NotificationStatusUpdate:       "Your appointment status changed",
	model.NotificationAppointment:        "Appointment update",
}

const defaultSubject = "New notification from the clinic"

// NotificationMailer emails patient-addressed notifications as they are
// published on the broker. Admin-channel notices are not mailed.
type NotificationMailer struct {
	broker  messaging.Broker
	channel string
	users   repository.UserRepository
	mailer  email.Service
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewNotificationMailer(broker messaging.Broker, channel string, users repository.UserRepository,
	mailer email.Service, m *metrics.Metrics) *NotificationMailer {
	return &NotificationMailer{
		broker:  broker,
		channel: channel,
		users:   users,
		mailer:  mailer,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 5,
		}),
		metrics: m,
	}
}

// Run consumes the channel until ctx is cancelled or the subscription ends.
func (w *NotificationMailer) Run(ctx context.Context) error {
	deliveries, err := w.broker.Subscribe(ctx, w.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.channel, err)
	}

	log.Info().Str("channel", w.channel).Msg("notification mailer started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification mailer stopped")
			return nil
		case data, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, data); err != nil {
				log.Error().Err(err).Msg("failed to mail notification")
				if w.metrics != nil {
					w.metrics.NotificationFailures.WithLabelValues("email").Inc()
				}
			}
		}
	}
}

// Handle mails one delivered envelope. Envelopes of other types and
// admin-channel notices are ignored.
func (w *NotificationMailer) Handle(ctx context.Context, data []byte) error {
	msg, err := messaging.Decode(data)
	if err != nil {
		return err
	}
	if msg.Type != notification.EventCreated {
		return nil
	}

	var n model.Notification
	if err := msg.DecodePayload(&n); err != nil {
		return fmt.Errorf("failed to decode notification %s: %w", msg.ID, err)
	}
	if n.RecipientType != model.RecipientUser || n.UserID == nil {
		return nil
	}

	user, err := w.users.Get(ctx, *n.UserID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			log.Warn().Int64("notification_id", n.ID).Msg("recipient no longer exists")
			return nil
		}
		return fmt.Errorf("failed to get recipient: %w", err)
	}

	// a disabled mailer is not an SMTP failure and must not trip the breaker
	err = w.cb.Execute(func() error {
		sendErr := w.mailer.Send(ctx, user.Email, subjectFor(n.Type), n.Message)
		if stderrors.Is(sendErr, email.ErrDisabled) {
			return nil
		}
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("failed to mail notification %d: %w", n.ID, err)
	}

	log.Debug().Int64("notification_id", n.ID).Int64("user_id", user.ID).Msg("notification mailed")
	return nil
}

func subjectFor(typ string) string {
	if s, ok := subjects[typ]; ok {
		return s
	}
	return defaultSubject
}
