package model

import "time"

// Profile holds a user's personal details. A user has at most one.
type Profile struct {
	ID          int64        `json:"id" db:"id"`
	UserID      int64        `json:"userId" db:"user_id"`
	PatientID   *string      `json:"patientId" db:"patient_id"`
	Name        string       `json:"name" db:"name"`
	Relative    string       `json:"relative" db:"relative"`
	DateOfBirth CalendarDate `json:"dateOfBirth" db:"date_of_birth"`
	Gender      string       `json:"gender" db:"gender"`
	Weight      *float64     `json:"weight" db:"weight"`
	Height      *float64     `json:"height" db:"height"`
	BloodType   *string      `json:"bloodType" db:"blood_type"`
	PhoneNumber *string      `json:"phoneNumber" db:"phone_number"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
	User        *UserSummary `json:"user,omitempty" db:"-"`
}

func NewProfile(owner *User, req *ProfileRequest, dob CalendarDate) *Profile {
	return &Profile{
		UserID:      owner.ID,
		PatientID:   copyPatientID(owner),
		Name:        req.Name,
		Relative:    req.Relative,
		DateOfBirth: dob,
		Gender:      req.Gender,
		Weight:      req.Weight,
		Height:      req.Height,
		BloodType:   req.BloodType,
		PhoneNumber: req.PhoneNumber,
	}
}

type ProfileRequest struct {
	Name        string   `json:"name" binding:"required"`
	Relative    string   `json:"relative"`
	DateOfBirth string   `json:"dateOfBirth" binding:"required,calendar_date"`
	Gender      string   `json:"gender" binding:"required,oneof=male female other"`
	Weight      *float64 `json:"weight" binding:"omitempty,gt=0"`
	Height      *float64 `json:"height" binding:"omitempty,gt=0"`
	BloodType   *string  `json:"bloodType"`
	PhoneNumber *string  `json:"phoneNumber"`
}

type UpdateProfileRequest struct {
	Name        *string  `json:"name"`
	Relative    *string  `json:"relative"`
	DateOfBirth *string  `json:"dateOfBirth" binding:"omitempty,calendar_date"`
	Gender      *string  `json:"gender" binding:"omitempty,oneof=male female other"`
	Weight      *float64 `json:"weight" binding:"omitempty,gt=0"`
	Height      *float64 `json:"height" binding:"omitempty,gt=0"`
	BloodType   *string  `json:"bloodType"`
	PhoneNumber *string  `json:"phoneNumber"`
}
