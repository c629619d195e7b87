package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	// AppointmentStatusDisapproved is accepted on status updates but never stored.
	AppointmentStatusDisapproved AppointmentStatus = "disapproved"
)

// Appointment is a patient's booking for a test on a date and time.
type Appointment struct {
	ID        int64             `json:"id" db:"id"`
	UserID    int64             `json:"userId" db:"user_id"`
	PatientID *string           `json:"patientId" db:"patient_id"`
	TestType  string            `json:"testType" db:"test_type"`
	Date      CalendarDate      `json:"date" db:"date"`
	Time      string            `json:"time" db:"time"`
	Status    AppointmentStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`
	Patient   *UserSummary      `json:"patient,omitempty" db:"-"`
}

// NewAppointment builds a pending appointment owned by owner, copying the
// owner's patient identifier at creation time.
func NewAppointment(owner *User, testType string, date CalendarDate, clock string) *Appointment {
	return &Appointment{
		UserID:    owner.ID,
		PatientID: copyPatientID(owner),
		TestType:  testType,
		Date:      date,
		Time:      clock,
		Status:    AppointmentStatusPending,
	}
}

type CreateAppointmentRequest struct {
	TestType string `json:"testType" binding:"required"`
	Date     string `json:"date" binding:"required,calendar_date"`
	Time     string `json:"time" binding:"required,clock"`
}

// UpdateAppointmentRequest fields are optional; nil keeps the stored value.
type UpdateAppointmentRequest struct {
	TestType *string `json:"testType"`
	Date     *string `json:"date"`
	Time     *string `json:"time"`
}

type AppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=confirmed disapproved"`
}

type AppointmentFilter struct {
	Status *AppointmentStatus
	UserID *int64
	From   *CalendarDate
	Limit  int
}
