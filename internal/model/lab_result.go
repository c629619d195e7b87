package model

import "time"

// LabResult is a test report whose file lives in object storage under FileKey.
type LabResult struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	PatientID   *string   `json:"patientId" db:"patient_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	FileKey     string    `json:"filePath" db:"file_key"`
	IsSent      bool      `json:"isSent" db:"is_sent"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func NewLabResult(owner *User, title, description, fileKey string) *LabResult {
	return &LabResult{
		UserID:      owner.ID,
		PatientID:   copyPatientID(owner),
		Title:       title,
		Description: description,
		FileKey:     fileKey,
	}
}

type CreateLabResultRequest struct {
	UserID      int64  `json:"userId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	FilePath    string `json:"filePath"`
}

type UpdateLabResultRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// LabResultUpload carries an uploaded report into the service.
type LabResultUpload struct {
	Title       string
	Filename    string
	ContentType string
	Size        int64
}

type SendLabResultResponse struct {
	Message      string        `json:"message"`
	Result       *LabResult    `json:"result"`
	Notification *Notification `json:"notification,omitempty"`
}
