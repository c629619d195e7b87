package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCalendarDate(t *testing.T) {
	d, err := ParseCalendarDate("2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", d.String())

	d, err = ParseCalendarDate("2025-03-07T15:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", d.String())

	_, err = ParseCalendarDate("07/03/2025")
	assert.Error(t, err)
}

func TestCalendarDateJSONAndScan(t *testing.T) {
	d, _ := ParseCalendarDate("2025-12-31")
	b, err := json.Marshal(struct {
		Date CalendarDate `json:"date"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-12-31"}`, string(b))

	var scanned CalendarDate
	require.NoError(t, scanned.Scan(time.Date(2025, 12, 31, 0, 0, 0, 0, time.Local)))
	assert.True(t, scanned.Equal(d.Time))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", v)
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30:00")
	require.NoError(t, err)
	assert.Equal(t, "09:30", c)

	_, err = ParseClock("9.30am")
	assert.Error(t, err)
}

func TestConstructorsCopyPatientID(t *testing.T) {
	pid := FormatPatientID(7)
	owner := &User{ID: 3, PatientID: &pid, Email: "p@example.com", Role: RolePatient}

	date, _ := ParseCalendarDate("2025-01-02")
	apt := NewAppointment(owner, "Blood Test", date, "10:00")
	n := NewUserNotification(owner, "hello", NotificationSystem)

	*owner.PatientID = "PAT-99999"

	assert.Equal(t, "PAT-00007", *apt.PatientID)
	assert.Equal(t, "PAT-00007", *n.PatientID)
	assert.Equal(t, AppointmentStatusPending, apt.Status)
	assert.False(t, n.IsRead)
	assert.True(t, n.OwnedBy(3))

	admin := NewAdminNotification("x", NotificationAppointmentCreated)
	assert.True(t, admin.IsRead)
	assert.Nil(t, admin.UserID)
	assert.Equal(t, RecipientAdmin, admin.RecipientType)
}

func TestActorCanAccess(t *testing.T) {
	assert.True(t, Actor{UserID: 1, Role: RolePatient}.CanAccess(1))
	assert.False(t, Actor{UserID: 1, Role: RolePatient}.CanAccess(2))
	assert.True(t, Actor{UserID: 9, Role: RoleAdmin}.CanAccess(2))
}
