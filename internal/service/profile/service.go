package profile

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/service/user"
	"github.com/jwalitptl/pulse-api/pkg/errors"
)

type Service struct {
	repo     repository.ProfileRepository
	userRepo repository.UserRepository
	userSvc  user.UserServicer
}

func NewService(repo repository.ProfileRepository, userRepo repository.UserRepository, userSvc user.UserServicer) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		userSvc:  userSvc,
	}
}

// Create adds the profile of userID. A user has at most one.
func (s *Service) Create(ctx context.Context, userID int64, req *model.ProfileRequest) (*model.Profile, error) {
	owner, err := s.userSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	dob, err := model.ParseCalendarDate(req.DateOfBirth)
	if err != nil {
		return nil, errors.BadRequest("invalid date of birth", err)
	}

	p := model.NewProfile(owner, req, dob)
	if err := s.repo.Create(ctx, p); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("profile already exists", err)
		}
		return nil, profileError(err)
	}
	p.User = owner.Summary()
	return p, nil
}

func (s *Service) FindAll(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, profileError(err)
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list users: %w", err))
	}

	byID := make(map[int64]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, p := range profiles {
		if u, ok := byID[p.UserID]; ok {
			p.User = u.Summary()
		}
	}
	return profiles, nil
}

func (s *Service) FindMine(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, profileError(err)
	}
	return s.withUser(ctx, p)
}

func (s *Service) FindOne(ctx context.Context, id int64, actor *model.Actor) (*model.Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, profileError(err)
	}
	if !actor.CanAccess(p.UserID) {
		return nil, errors.Forbidden("you do not have permission to view this profile")
	}
	return s.withUser(ctx, p)
}

func (s *Service) FindByPatientID(ctx context.Context, patientID string, actor *model.Actor) (*model.Profile, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, profileError(err)
	}
	if !actor.CanAccess(p.UserID) {
		return nil, errors.Forbidden("you do not have permission to view this profile")
	}
	return s.withUser(ctx, p)
}

// Update merges the supplied fields into the profile.
func (s *Service) Update(ctx context.Context, id int64, actor *model.Actor, req *model.UpdateProfileRequest) (*model.Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, profileError(err)
	}
	if !actor.CanAccess(p.UserID) {
		return nil, errors.Forbidden("you do not have permission to update this profile")
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Relative != nil {
		p.Relative = *req.Relative
	}
	if req.DateOfBirth != nil {
		dob, err := model.ParseCalendarDate(*req.DateOfBirth)
		if err != nil {
			return nil, errors.BadRequest("invalid date of birth", err)
		}
		p.DateOfBirth = dob
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Weight != nil {
		p.Weight = req.Weight
	}
	if req.Height != nil {
		p.Height = req.Height
	}
	if req.BloodType != nil {
		p.BloodType = req.BloodType
	}
	if req.PhoneNumber != nil {
		p.PhoneNumber = req.PhoneNumber
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, profileError(err)
	}
	return s.withUser(ctx, p)
}

// Remove deletes the profile and then its user account.
func (s *Service) Remove(ctx context.Context, id int64, actor *model.Actor) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return profileError(err)
	}
	if !actor.CanAccess(p.UserID) {
		return errors.Forbidden("you do not have permission to delete this profile")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return profileError(err)
	}
	return s.userSvc.RemoveByID(ctx, p.UserID)
}

// UpdateEmail changes the credentials of the profile owner and returns the
// refreshed profile.
func (s *Service) UpdateEmail(ctx context.Context, userID int64, req *model.UpdateCredentialsRequest) (*model.Profile, error) {
	if _, err := s.repo.GetByUserID(ctx, userID); err != nil {
		return nil, profileError(err)
	}
	if _, err := s.userSvc.UpdateCredentials(ctx, userID, req.Email, req.Password); err != nil {
		return nil, err
	}
	return s.FindMine(ctx, userID)
}

func (s *Service) withUser(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	u, err := s.userRepo.Get(ctx, p.UserID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return p, nil
		}
		return nil, errors.Internal(fmt.Errorf("failed to get profile owner: %w", err))
	}
	p.User = u.Summary()
	return p, nil
}

func profileError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("profile", err)
	}
	return errors.Internal(fmt.Errorf("failed to access profiles: %w", err))
}
