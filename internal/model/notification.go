package model

import "time"

type RecipientType string

const (
	RecipientUser  RecipientType = "user"
	RecipientAdmin RecipientType = "admin"
)

// Notification types
const (
	NotificationAppointmentCreated = "appointment_created"
	NotificationAppointmentUpdated = "appointment_updated"
	NotificationAppointmentDeleted = "appointment_deleted"
	NotificationAdminDeleted       = "admin_deleted"
	NotificationStatusUpdate       = "appointment_status_update"
	NotificationLabResult          = "lab-result"
	NotificationAppointment        = "appointment"
	NotificationSystem             = "system"
	NotificationOther              = "other"
)

// Notification is a message addressed either to one user or to the shared admin channel.
type Notification struct {
	ID            int64         `json:"id" db:"id"`
	Message       string        `json:"message" db:"message"`
	Type          string        `json:"type" db:"type"`
	RecipientType RecipientType `json:"recipientType" db:"recipient_type"`
	UserID        *int64        `json:"userId" db:"user_id"`
	PatientID     *string       `json:"patientId" db:"patient_id"`
	IsRead        bool          `json:"isRead" db:"is_read"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
}

// NewAdminNotification builds an admin-channel notice. Admin notices are
// created already read.
func NewAdminNotification(message, typ string) *Notification {
	return &Notification{
		Message:       message,
		Type:          typ,
		RecipientType: RecipientAdmin,
		IsRead:        true,
	}
}

// NewUserNotification builds an unread notice for user, copying the user's
// patient identifier at creation time.
func NewUserNotification(user *User, message, typ string) *Notification {
	id := user.ID
	return &Notification{
		Message:       message,
		Type:          typ,
		RecipientType: RecipientUser,
		UserID:        &id,
		PatientID:     copyPatientID(user),
	}
}

// OwnedBy reports whether the notification targets userID personally.
func (n *Notification) OwnedBy(userID int64) bool {
	return n.UserID != nil && *n.UserID == userID
}

type CreateNotificationRequest struct {
	UserID  int64  `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=lab-result appointment system other"`
}

type AdminNotificationRequest struct {
	Message string `json:"message" binding:"required"`
	Type    string `json:"type" binding:"required"`
}

type MarkAllResult struct {
	Affected int64 `json:"affected"`
}
