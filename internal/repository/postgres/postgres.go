package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/pulse-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type notificationRepository struct {
	BaseRepository
}

type labResultRepository struct {
	BaseRepository
}

type profileRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{NewBaseRepository(db)}
}

func NewLabResultRepository(db *sqlx.DB) repository.LabResultRepository {
	return &labResultRepository{NewBaseRepository(db)}
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{NewBaseRepository(db)}
}

// NewRepositories wires every postgres repository on db.
func NewRepositories(db *sqlx.DB) *repository.Repositories {
	return &repository.Repositories{
		Users:         NewUserRepository(db),
		Appointments:  NewAppointmentRepository(db),
		Notifications: NewNotificationRepository(db),
		LabResults:    NewLabResultRepository(db),
		Profiles:      NewProfileRepository(db),
	}
}
