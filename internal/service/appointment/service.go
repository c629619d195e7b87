package appointment

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/service/notification"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

// Notification messages
const (
	msgCreated      = "User %s created a new appointment."
	msgUpdated      = "User %s updated their appointment."
	msgDeleted      = "User %s deleted an appointment."
	msgAdminDeleted = "Admin deleted appointment with ID %d."
	msgConfirmed    = "Your appointment has been confirmed."
	msgDisapproved  = "Your appointment has been disapproved."
)

// Service runs the appointment lifecycle. Every state change is committed
// before its notification is dispatched, except disapproval, which notifies
// the patient and then removes the appointment. Notification failures are
// logged and counted but never returned.
type Service struct {
	repo     repository.AppointmentRepository
	userRepo repository.UserRepository
	notifSvc notification.Service
	metrics  *metrics.Metrics
	onChange []func()
}

func NewService(repo repository.AppointmentRepository, userRepo repository.UserRepository,
	notifSvc notification.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		notifSvc: notifSvc,
		metrics:  m,
	}
}

// OnChange registers fn to run after every committed appointment mutation.
// It is not safe to call concurrently with the other methods.
func (s *Service) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *Service) Create(ctx context.Context, userID int64, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	date, err := model.ParseCalendarDate(req.Date)
	if err != nil {
		return nil, errors.BadRequest("invalid date format", err)
	}
	clock, err := model.ParseClock(req.Time)
	if err != nil {
		return nil, errors.BadRequest("invalid time format", err)
	}

	apt := model.NewAppointment(user, req.TestType, date, clock)
	if err := s.repo.Create(ctx, apt); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to create appointment: %w", err))
	}
	apt.Patient = user.Summary()
	s.changed()

	s.notifyAdmin(ctx, "create", apt.ID, fmt.Sprintf(msgCreated, user.Email), model.NotificationAppointmentCreated)
	return apt, nil
}

// Update edits an appointment owned by userID. Any change to test type,
// date or time puts the appointment back to pending.
func (s *Service) Update(ctx context.Context, id, userID int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	apt, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, appointmentError(err)
	}

	edited := false
	if req.TestType != nil && *req.TestType != apt.TestType {
		apt.TestType = *req.TestType
		edited = true
	}
	if req.Date != nil {
		date, err := model.ParseCalendarDate(*req.Date)
		if err != nil {
			return nil, errors.BadRequest("invalid date format", err)
		}
		if !date.Equal(apt.Date.Time) {
			apt.Date = date
			edited = true
		}
	}
	if req.Time != nil {
		clock, err := model.ParseClock(*req.Time)
		if err != nil {
			return nil, errors.BadRequest("invalid time format", err)
		}
		if clock != apt.Time {
			apt.Time = clock
			edited = true
		}
	}
	if edited {
		apt.Status = model.AppointmentStatusPending
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, appointmentError(err)
	}

	s.changed()
	s.notifyAdmin(ctx, "update", apt.ID, fmt.Sprintf(msgUpdated, user.Email), model.NotificationAppointmentUpdated)
	return apt, nil
}

// DeleteForPatient removes an appointment owned by userID.
func (s *Service) DeleteForPatient(ctx context.Context, id, userID int64) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetForUser(ctx, id, userID); err != nil {
		return appointmentError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appointmentError(err)
	}

	s.changed()
	s.notifyAdmin(ctx, "delete", id, fmt.Sprintf(msgDeleted, user.Email), model.NotificationAppointmentDeleted)
	return nil
}

func (s *Service) DeleteByAdmin(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appointmentError(err)
	}

	s.changed()
	s.notifyAdmin(ctx, "admin_delete", id, fmt.Sprintf(msgAdminDeleted, id), model.NotificationAdminDeleted)
	return nil
}

// SetStatus applies an admin decision. Confirmation is stored and returned.
// Disapproval is never stored: the patient is told and the appointment is
// removed, and the result is nil.
func (s *Service) SetStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	if status != model.AppointmentStatusConfirmed && status != model.AppointmentStatusDisapproved {
		return nil, errors.BadRequest("status must be confirmed or disapproved", nil)
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, appointmentError(err)
	}

	if status == model.AppointmentStatusConfirmed {
		apt.Status = model.AppointmentStatusConfirmed
		if err := s.repo.Update(ctx, apt); err != nil {
			return nil, appointmentError(err)
		}
		s.changed()
		s.notifyOwner(ctx, "confirm", apt, msgConfirmed)
		return apt, nil
	}

	s.notifyOwner(ctx, "disapprove", apt, msgDisapproved)
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appointmentError(err)
	}
	s.changed()
	return nil, nil
}

func (s *Service) ListForPatient(ctx context.Context, userID int64) ([]*model.Appointment, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, model.AppointmentFilter{UserID: &userID})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return list, nil
}

// ListAll returns every appointment with its patient, optionally narrowed to
// one status.
func (s *Service) ListAll(ctx context.Context, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	if status != nil {
		switch *status {
		case model.AppointmentStatusPending, model.AppointmentStatusConfirmed, model.AppointmentStatusDisapproved:
		default:
			return nil, errors.BadRequest(fmt.Sprintf("unknown status %q", *status), nil)
		}
	}
	list, err := s.repo.List(ctx, model.AppointmentFilter{Status: status})
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return list, nil
}

func (s *Service) getUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

func (s *Service) notifyAdmin(ctx context.Context, op string, appointmentID int64, message, typ string) {
	s.dispatch(op, appointmentID, func() error {
		_, err := s.notifSvc.NotifyAdmin(context.WithoutCancel(ctx), message, typ)
		return err
	})
}

func (s *Service) notifyOwner(ctx context.Context, op string, apt *model.Appointment, message string) {
	s.dispatch(op, apt.ID, func() error {
		ctx := context.WithoutCancel(ctx)
		owner, err := s.userRepo.Get(ctx, apt.UserID)
		if err != nil {
			return fmt.Errorf("failed to get appointment owner: %w", err)
		}
		_, err = s.notifSvc.NotifyUser(ctx, owner, message, model.NotificationStatusUpdate)
		return err
	})
}

// dispatch runs a notification side effect so that neither an error nor a
// panic reaches the caller.
func (s *Service) dispatch(op string, appointmentID int64, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.dispatchFailed(op, appointmentID, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		s.dispatchFailed(op, appointmentID, err)
	}
}

func (s *Service) dispatchFailed(op string, appointmentID int64, err error) {
	log.Error().Err(err).
		Str("operation", op).
		Int64("appointment_id", appointmentID).
		Msg("appointment notification failed")
	if s.metrics != nil {
		s.metrics.NotificationFailures.WithLabelValues(op).Inc()
	}
}

func appointmentError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("appointment", err)
	}
	return errors.Internal(fmt.Errorf("failed to access appointment: %w", err))
}
