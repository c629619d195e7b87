package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/repository/memory"
	"github.com/jwalitptl/pulse-api/internal/service/user"
	apperrors "github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/security"
)

type fixture struct {
	svc     *Service
	repos   *repository.Repositories
	patient *model.User
	other   *model.User
	admin   *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	userSvc := user.NewService(repos.Users, security.NewBcryptHasher(4))

	f := &fixture{
		svc:     NewService(repos.Profiles, repos.Users, userSvc),
		repos:   repos,
		patient: &model.User{Email: "jane@example.com", Role: model.RolePatient},
		other:   &model.User{Email: "john@example.com", Role: model.RolePatient},
		admin:   &model.User{Email: "boss@pulse.org", Role: model.RoleAdmin},
	}
	require.NoError(t, repos.Users.Create(ctx, f.patient))
	require.NoError(t, repos.Users.Create(ctx, f.other))
	require.NoError(t, repos.Users.Create(ctx, f.admin))
	return f
}

func actorOf(u *model.User) *model.Actor {
	return &model.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func request() *model.ProfileRequest {
	weight := 61.5
	return &model.ProfileRequest{
		Name:        "Jane Doe",
		Relative:    "self",
		DateOfBirth: "1990-05-04",
		Gender:      "female",
		Weight:      &weight,
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	p, err := f.svc.Create(ctx, f.patient.ID, request())
	require.NoError(t, err)
	assert.Equal(t, "1990-05-04", p.DateOfBirth.String())
	assert.Equal(t, *f.patient.PatientID, *p.PatientID)
	require.NotNil(t, p.User)
	assert.Equal(t, f.patient.Email, p.User.Email)

	_, err = f.svc.Create(ctx, f.patient.ID, request())
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	bad := request()
	bad.DateOfBirth = "05/04/1990"
	_, err = f.svc.Create(ctx, f.other.ID, bad)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, err := f.svc.Create(ctx, f.patient.ID, request())
	require.NoError(t, err)

	mine, err := f.svc.FindMine(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, mine.ID)

	_, err = f.svc.FindMine(ctx, f.other.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.FindOne(ctx, p.ID, actorOf(f.other))
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	_, err = f.svc.FindOne(ctx, p.ID, actorOf(f.admin))
	assert.NoError(t, err)

	byPID, err := f.svc.FindByPatientID(ctx, *f.patient.PatientID, actorOf(f.patient))
	require.NoError(t, err)
	assert.Equal(t, p.ID, byPID.ID)

	all, err := f.svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].User)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, err := f.svc.Create(ctx, f.patient.ID, request())
	require.NoError(t, err)

	name := "Jane Q. Doe"
	updated, err := f.svc.Update(ctx, p.ID, actorOf(f.patient), &model.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "female", updated.Gender)
	require.NotNil(t, updated.Weight)
	assert.Equal(t, 61.5, *updated.Weight)

	_, err = f.svc.Update(ctx, p.ID, actorOf(f.other), &model.UpdateProfileRequest{Name: &name})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestRemoveDeletesUser(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, err := f.svc.Create(ctx, f.patient.ID, request())
	require.NoError(t, err)

	err = f.svc.Remove(ctx, p.ID, actorOf(f.other))
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	require.NoError(t, f.svc.Remove(ctx, p.ID, actorOf(f.patient)))
	_, err = f.repos.Profiles.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.repos.Users.Get(ctx, f.patient.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateEmail(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, err := f.svc.Create(ctx, f.patient.ID, request())
	require.NoError(t, err)

	p, err := f.svc.UpdateEmail(ctx, f.patient.ID, &model.UpdateCredentialsRequest{Email: "jane.doe@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", p.User.Email)

	_, err = f.svc.UpdateEmail(ctx, f.other.ID, &model.UpdateCredentialsRequest{Email: "x@example.com"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
