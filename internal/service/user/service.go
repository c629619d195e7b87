package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/security"
)

// UserServicer is the account surface other services depend on.
type UserServicer interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	GetByPatientID(ctx context.Context, patientID string, actor *model.Actor) (*model.User, error)
	FindAll(ctx context.Context, actor *model.Actor) ([]*model.User, error)
	Remove(ctx context.Context, patientID string, actor *model.Actor) error
	RemoveByID(ctx context.Context, id int64) error
	UpdateCredentials(ctx context.Context, userID int64, email, password string) (*model.User, error)
}

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *Service) FindAll(ctx context.Context, actor *model.Actor) ([]*model.User, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbidden("only admins can view all users")
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list users: %w", err))
	}
	return users, nil
}

// GetByPatientID returns the account when the actor owns it or is an admin.
func (s *Service) GetByPatientID(ctx context.Context, patientID string, actor *model.Actor) (*model.User, error) {
	user, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, translate(err)
	}
	if !actor.CanAccess(user.ID) {
		return nil, errors.Forbidden("you do not have permission to view this user")
	}
	return user, nil
}

// Remove deletes the account and, through the store, everything it owns.
func (s *Service) Remove(ctx context.Context, patientID string, actor *model.Actor) error {
	user, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return translate(err)
	}
	if !actor.CanAccess(user.ID) {
		return errors.Forbidden("you do not have permission to delete this account")
	}
	return s.RemoveByID(ctx, user.ID)
}

func (s *Service) RemoveByID(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

// UpdateCredentials replaces the email and, when password is non-empty, the
// password hash.
func (s *Service) UpdateCredentials(ctx context.Context, userID int64, email, password string) (*model.User, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}

	if email = strings.TrimSpace(email); email != "" {
		user.Email = email
	}
	if password != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			if stderrors.Is(err, security.ErrPasswordTooShort) {
				return nil, errors.BadRequest("password must be at least 6 characters", err)
			}
			return nil, errors.Internal(fmt.Errorf("failed to hash password: %w", err))
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("email already in use", err)
		}
		return nil, translate(err)
	}
	return user, nil
}

func translate(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("user", err)
	}
	return errors.Internal(fmt.Errorf("failed to access users: %w", err))
}
