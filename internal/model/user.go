package model

import (
	"fmt"
	"time"
)

// User represents a system account
type User struct {
	ID           int64     `json:"id" db:"id"`
	PatientID    *string   `json:"patientId" db:"patient_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary returns the reference embedded in appointment listings.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, PatientID: u.PatientID, Email: u.Email}
}

// PatientIdentifier returns the external identifier or an empty string for admins.
func (u *User) PatientIdentifier() string {
	if u.PatientID == nil {
		return ""
	}
	return *u.PatientID
}

// UserSummary is the public view of a user attached to other records.
type UserSummary struct {
	ID        int64   `json:"id" db:"id"`
	PatientID *string `json:"patientId" db:"patient_id"`
	Email     string  `json:"email" db:"email"`
}

// FormatPatientID renders a sequence value as an external patient identifier.
func FormatPatientID(seq int64) string {
	return fmt.Sprintf("PAT-%05d", seq)
}

// copyPatientID detaches the denormalized identifier from the owning user.
func copyPatientID(u *User) *string {
	if u == nil || u.PatientID == nil {
		return nil
	}
	id := *u.PatientID
	return &id
}
