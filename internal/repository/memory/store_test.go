package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
)

func date(t *testing.T, s string) model.CalendarDate {
	d, err := model.ParseCalendarDate(s)
	require.NoError(t, err)
	return d
}

func TestUserPatientSequence(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	p1 := &model.User{Email: "a@example.com", Role: model.RolePatient}
	admin := &model.User{Email: "boss@pulse.org", Role: model.RoleAdmin}
	p2 := &model.User{Email: "b@example.com", Role: model.RolePatient}
	require.NoError(t, repos.Users.Create(ctx, p1))
	require.NoError(t, repos.Users.Create(ctx, admin))
	require.NoError(t, repos.Users.Create(ctx, p2))

	assert.Equal(t, "PAT-00001", *p1.PatientID)
	assert.Nil(t, admin.PatientID)
	assert.Equal(t, "PAT-00002", *p2.PatientID)

	err := repos.Users.Create(ctx, &model.User{Email: "A@example.com", Role: model.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := repos.Users.GetByPatientID(ctx, "PAT-00002")
	require.NoError(t, err)
	assert.Equal(t, p2.ID, got.ID)

	n, _ := repos.Users.CountByRole(ctx, model.RolePatient)
	assert.Equal(t, 2, n)
}

func TestAppointmentListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	u := &model.User{Email: "a@example.com", Role: model.RolePatient}
	require.NoError(t, repos.Users.Create(ctx, u))

	later := model.NewAppointment(u, "X-Ray", date(t, "2025-05-02"), "09:00")
	early := model.NewAppointment(u, "Blood", date(t, "2025-05-01"), "11:00")
	earlier := model.NewAppointment(u, "MRI", date(t, "2025-05-01"), "08:30")
	for _, a := range []*model.Appointment{later, early, earlier} {
		require.NoError(t, repos.Appointments.Create(ctx, a))
	}

	list, err := repos.Appointments.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{earlier.ID, early.ID, later.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, u.Email, list[0].Patient.Email)

	confirmed := model.AppointmentStatusConfirmed
	early.Status = confirmed
	require.NoError(t, repos.Appointments.Update(ctx, early))
	list, _ = repos.Appointments.List(ctx, model.AppointmentFilter{Status: &confirmed})
	require.Len(t, list, 1)
	assert.Equal(t, early.ID, list[0].ID)

	from := date(t, "2025-05-02")
	list, _ = repos.Appointments.List(ctx, model.AppointmentFilter{From: &from, Limit: 3})
	require.Len(t, list, 1)

	_, err = repos.Appointments.GetForUser(ctx, early.ID, u.ID+1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, _ := repos.Appointments.CountOnDate(ctx, date(t, "2025-05-01"))
	assert.Equal(t, 2, n)
}

func TestNotificationMarkAllAndPurge(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	u := &model.User{Email: "a@example.com", Role: model.RolePatient}
	require.NoError(t, repos.Users.Create(ctx, u))

	old := time.Now().Add(-48 * time.Hour)
	store.SetClock(func() time.Time { return old })
	require.NoError(t, repos.Notifications.Create(ctx, model.NewAdminNotification("old", model.NotificationSystem)))
	store.SetClock(time.Now)
	require.NoError(t, repos.Notifications.Create(ctx, model.NewUserNotification(u, "one", model.NotificationSystem)))
	require.NoError(t, repos.Notifications.Create(ctx, model.NewUserNotification(u, "two", model.NotificationSystem)))

	list, _ := repos.Notifications.ListForUser(ctx, u.ID)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Message)

	affected, _ := repos.Notifications.MarkAllReadForUser(ctx, u.ID)
	assert.Equal(t, int64(2), affected)
	affected, _ = repos.Notifications.MarkAllReadForUser(ctx, u.ID)
	assert.Zero(t, affected)
	affected, _ = repos.Notifications.MarkAllReadForAdmin(ctx)
	assert.Zero(t, affected)

	purged, _ := repos.Notifications.DeleteReadBefore(ctx, time.Now().Add(-time.Hour))
	assert.Equal(t, int64(1), purged)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	u := &model.User{Email: "a@example.com", Role: model.RolePatient}
	require.NoError(t, repos.Users.Create(ctx, u))
	apt := model.NewAppointment(u, "Blood", date(t, "2025-05-01"), "11:00")
	require.NoError(t, repos.Appointments.Create(ctx, apt))
	lab := model.NewLabResult(u, "CBC", "", "k")
	require.NoError(t, repos.LabResults.Create(ctx, lab))

	require.NoError(t, repos.Users.Delete(ctx, u.ID))

	_, err := repos.Appointments.Get(ctx, apt.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repos.LabResults.Get(ctx, lab.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repos.Users.Delete(ctx, u.ID), repository.ErrNotFound)
}

func TestProfileUniquePerUser(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	u := &model.User{Email: "a@example.com", Role: model.RolePatient}
	require.NoError(t, repos.Users.Create(ctx, u))

	req := &model.ProfileRequest{Name: "Ann", Gender: "female"}
	require.NoError(t, repos.Profiles.Create(ctx, model.NewProfile(u, req, date(t, "1990-01-01"))))
	err := repos.Profiles.Create(ctx, model.NewProfile(u, req, date(t, "1990-01-01")))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	names, _ := repos.Profiles.NamesByUserIDs(ctx, []int64{u.ID, 99})
	assert.Equal(t, map[int64]string{u.ID: "Ann"}, names)
}
