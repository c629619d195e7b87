package labresult

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/service/notification"
	"github.com/jwalitptl/pulse-api/internal/storage"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

const (
	defaultUploadTitle       = "Lab Result"
	defaultUploadDescription = "Uploaded lab result"
	sentMessage              = "Result sent to user and notification triggered"
	availableMessage         = `Your lab result titled "%s" is now available.`
)

// BlobStore holds the uploaded report files.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo     repository.LabResultRepository
	userRepo repository.UserRepository
	notifSvc notification.Service
	blobs    BlobStore
	metrics  *metrics.Metrics
}

func NewService(repo repository.LabResultRepository, userRepo repository.UserRepository,
	notifSvc notification.Service, blobs BlobStore, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		notifSvc: notifSvc,
		blobs:    blobs,
		metrics:  m,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateLabResultRequest) (*model.LabResult, error) {
	user, err := s.userRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, userError(err)
	}

	result := model.NewLabResult(user, req.Title, req.Description, req.FilePath)
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, labResultError(err)
	}
	return result, nil
}

// Upload stores the file for the patient and records a result pointing at it.
// The object is removed again if the row cannot be written.
func (s *Service) Upload(ctx context.Context, patientID string, upload *model.LabResultUpload, r io.Reader) (*model.LabResult, error) {
	user, err := s.userRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, userError(err)
	}

	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = defaultUploadTitle
	}

	key := storage.LabResultKey(user.PatientIdentifier(), upload.Filename)
	if err := s.blobs.Put(ctx, key, r, upload.Size, upload.ContentType); err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to store lab result file: %w", err))
	}

	result := model.NewLabResult(user, title, defaultUploadDescription, key)
	if err := s.repo.Create(ctx, result); err != nil {
		s.removeBlob(context.WithoutCancel(ctx), key)
		return nil, labResultError(err)
	}
	return result, nil
}

// SendToUser marks the result sent and then tells the owner. A failed notice
// does not undo the flag.
func (s *Service) SendToUser(ctx context.Context, id int64) (*model.SendLabResultResponse, error) {
	result, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, labResultError(err)
	}
	return s.send(ctx, result)
}

// SendToUserByPatientID sends the patient's most recent result.
func (s *Service) SendToUserByPatientID(ctx context.Context, patientID string) (*model.SendLabResultResponse, error) {
	user, err := s.userRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, userError(err)
	}
	result, err := s.repo.LatestForUser(ctx, user.ID)
	if err != nil {
		return nil, labResultError(err)
	}
	return s.send(ctx, result)
}

func (s *Service) send(ctx context.Context, result *model.LabResult) (*model.SendLabResultResponse, error) {
	result.IsSent = true
	if err := s.repo.Update(ctx, result); err != nil {
		return nil, labResultError(err)
	}
	if s.metrics != nil {
		s.metrics.LabResultsSent.Inc()
	}

	resp := &model.SendLabResultResponse{Message: sentMessage, Result: result}
	n, err := s.notifSvc.CreateNotification(context.WithoutCancel(ctx), result.UserID,
		fmt.Sprintf(availableMessage, result.Title), model.NotificationLabResult)
	if err != nil {
		log.Error().Err(err).Int64("lab_result_id", result.ID).Msg("lab result notification failed")
		if s.metrics != nil {
			s.metrics.NotificationFailures.WithLabelValues("lab_result_send").Inc()
		}
		return resp, nil
	}
	resp.Notification = n
	return resp, nil
}

func (s *Service) FindAllByUser(ctx context.Context, userID int64) ([]*model.LabResult, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, labResultError(err)
	}
	return list, nil
}

func (s *Service) FindAll(ctx context.Context) ([]*model.LabResult, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, labResultError(err)
	}
	return list, nil
}

// FindOne returns the result to its owner or an admin. Anyone else gets
// NotFound.
func (s *Service) FindOne(ctx context.Context, id int64, actor *model.Actor) (*model.LabResult, error) {
	result, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, labResultError(err)
	}
	if !actor.CanAccess(result.UserID) {
		return nil, errors.NotFound("lab result", nil)
	}
	return result, nil
}

func (s *Service) Update(ctx context.Context, id int64, req *model.UpdateLabResultRequest) (*model.LabResult, error) {
	result, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, labResultError(err)
	}
	if req.Title != nil {
		result.Title = *req.Title
	}
	if req.Description != nil {
		result.Description = *req.Description
	}
	if err := s.repo.Update(ctx, result); err != nil {
		return nil, labResultError(err)
	}
	return result, nil
}

// Remove deletes the row and then, best effort, its file.
func (s *Service) Remove(ctx context.Context, id int64) error {
	result, err := s.repo.Get(ctx, id)
	if err != nil {
		return labResultError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return labResultError(err)
	}
	if result.FileKey != "" {
		s.removeBlob(context.WithoutCancel(ctx), result.FileKey)
	}
	return nil
}

// Download opens the result file for its owner or an admin. The caller
// closes the reader.
func (s *Service) Download(ctx context.Context, id int64, actor *model.Actor) (io.ReadCloser, *model.LabResult, error) {
	result, err := s.FindOne(ctx, id, actor)
	if err != nil {
		return nil, nil, err
	}
	if result.FileKey == "" {
		return nil, nil, errors.NotFound("lab result file", nil)
	}

	rc, err := s.blobs.Get(ctx, result.FileKey)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, errors.NotFound("lab result file", err)
		}
		return nil, nil, errors.Internal(fmt.Errorf("failed to open lab result file: %w", err))
	}
	return rc, result, nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to delete lab result file")
	}
}

func userError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("user", err)
	}
	return errors.Internal(fmt.Errorf("failed to get user: %w", err))
}

func labResultError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("lab result", err)
	}
	return errors.Internal(fmt.Errorf("failed to access lab results: %w", err))
}
