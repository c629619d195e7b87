package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/internal/repository/memory"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/security"
)

type fixture struct {
	svc     *Service
	repos   *repository.Repositories
	hasher  security.PasswordHasher
	patient *model.User
	other   *model.User
	admin   *model.User
}

func actorOf(u *model.User) *model.Actor {
	return &model.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	hasher := security.NewBcryptHasher(4)

	f := &fixture{
		svc:     NewService(repos.Users, hasher),
		repos:   repos,
		hasher:  hasher,
		patient: &model.User{Email: "jane@example.com", Role: model.RolePatient},
		other:   &model.User{Email: "john@example.com", Role: model.RolePatient},
		admin:   &model.User{Email: "boss@pulse.org", Role: model.RoleAdmin},
	}
	require.NoError(t, repos.Users.Create(ctx, f.patient))
	require.NoError(t, repos.Users.Create(ctx, f.other))
	require.NoError(t, repos.Users.Create(ctx, f.admin))
	return f
}

func TestFindAll(t *testing.T) {
	f := setup(t)

	users, err := f.svc.FindAll(context.Background(), actorOf(f.admin))
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = f.svc.FindAll(context.Background(), actorOf(f.patient))
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestGetByPatientID(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	pid := *f.patient.PatientID

	got, err := f.svc.GetByPatientID(ctx, pid, actorOf(f.patient))
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, got.ID)

	_, err = f.svc.GetByPatientID(ctx, pid, actorOf(f.admin))
	assert.NoError(t, err)

	_, err = f.svc.GetByPatientID(ctx, pid, actorOf(f.other))
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = f.svc.GetByPatientID(ctx, "PAT-99999", actorOf(f.admin))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	pid := *f.patient.PatientID

	err := f.svc.Remove(ctx, pid, actorOf(f.other))
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	require.NoError(t, f.svc.Remove(ctx, pid, actorOf(f.patient)))
	_, err = f.repos.Users.Get(ctx, f.patient.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = f.svc.Remove(ctx, pid, actorOf(f.admin))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdateCredentials(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	updated, err := f.svc.UpdateCredentials(ctx, f.patient.ID, "jane.doe@example.com", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", updated.Email)
	assert.NoError(t, f.hasher.Compare(updated.PasswordHash, "newpass"))

	// empty password keeps the hash
	again, err := f.svc.UpdateCredentials(ctx, f.patient.ID, "jane@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, updated.PasswordHash, again.PasswordHash)

	_, err = f.svc.UpdateCredentials(ctx, f.patient.ID, "john@example.com", "")
	assert.True(t, errors.Is(err, errors.ErrConflict))

	_, err = f.svc.UpdateCredentials(ctx, 999, "x@example.com", "")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
