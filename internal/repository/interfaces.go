package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/pulse-api/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	// UserRepository is the identity store. Create assigns PatientID from a
	// monotonic sequence for patient accounts.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByPatientID(ctx context.Context, patientID string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.User, error)
		CountByRole(ctx context.Context, role model.Role) (int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		// GetForUser returns the appointment only when userID owns it.
		GetForUser(ctx context.Context, id, userID int64) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id int64) error
		// List orders by date then time; Patient is populated.
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
		CountOnDate(ctx context.Context, date model.CalendarDate) (int, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id int64) (*model.Notification, error)
		Update(ctx context.Context, notification *model.Notification) error
		Delete(ctx context.Context, id int64) error
		// ListForUser and ListForAdmin return newest first.
		ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error)
		ListForAdmin(ctx context.Context) ([]*model.Notification, error)
		MarkAllReadForUser(ctx context.Context, userID int64) (int64, error)
		MarkAllReadForAdmin(ctx context.Context) (int64, error)
		DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	LabResultRepository interface {
		Create(ctx context.Context, result *model.LabResult) error
		Get(ctx context.Context, id int64) (*model.LabResult, error)
		Update(ctx context.Context, result *model.LabResult) error
		Delete(ctx context.Context, id int64) error
		// ListByUser and List return newest first.
		ListByUser(ctx context.Context, userID int64) ([]*model.LabResult, error)
		List(ctx context.Context) ([]*model.LabResult, error)
		LatestForUser(ctx context.Context, userID int64) (*model.LabResult, error)
		Count(ctx context.Context) (int, error)
	}

	ProfileRepository interface {
		Create(ctx context.Context, profile *model.Profile) error
		Get(ctx context.Context, id int64) (*model.Profile, error)
		GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
		GetByPatientID(ctx context.Context, patientID string) (*model.Profile, error)
		Update(ctx context.Context, profile *model.Profile) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.Profile, error)
		// NamesByUserIDs maps user id to profile name for the given users.
		NamesByUserIDs(ctx context.Context, userIDs []int64) (map[int64]string, error)
	}
)

// Repositories bundles one backend's implementations.
type Repositories struct {
	Users         UserRepository
	Appointments  AppointmentRepository
	Notifications NotificationRepository
	LabResults    LabResultRepository
	Profiles      ProfileRepository
}
