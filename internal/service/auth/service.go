package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/pkg/auth"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/security"
)

var ErrInvalidCredentials = stderrors.New("invalid credentials")

type Service struct {
	userRepo    repository.UserRepository
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
	adminDomain string
}

// NewService builds the credential service. Accounts whose email ends with
// adminDomain are created as admins.
func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService,
	hasher security.PasswordHasher, adminDomain string) *Service {
	return &Service{
		userRepo:    userRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		adminDomain: strings.ToLower(strings.TrimSpace(adminDomain)),
	}
}

func (s *Service) roleFor(email string) model.Role {
	if s.adminDomain != "" && strings.HasSuffix(strings.ToLower(email), s.adminDomain) {
		return model.RoleAdmin
	}
	return model.RolePatient
}

func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.SignupResponse, error) {
	email := strings.TrimSpace(req.Email)

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.Conflict("user already exists with that email", nil)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.Internal(fmt.Errorf("failed to check email: %w", err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return nil, errors.BadRequest("password must be at least 6 characters", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("user already exists with that email", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.SignupResponse{
		User:  user,
		Token: model.TokenResponse{AccessToken: token},
	}, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Unauthorized(ErrInvalidCredentials)
	}

	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.LoginResponse{
		Message: "Login successful",
		Token:   model.TokenResponse{AccessToken: token},
	}, nil
}

// ValidateToken checks signature and expiry and returns the claims.
func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.TokenClaims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Unauthorized(auth.ErrInvalidToken)
	}
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}
	return claims, nil
}

// Authenticate resolves a bearer token to the current account. The role is
// read from the stored user, so a deleted account is rejected even while its
// token is unexpired.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Actor, error) {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	return &model.Actor{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
