// Package memory keeps every repository in process memory. It backs the
// memory database driver and the service and handler tests.
package memory

import (
	"sync"
	"time"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
)

// Store holds all tables behind one lock so cascades stay consistent.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[int64]*model.User
	appointments  map[int64]*model.Appointment
	notifications map[int64]*model.Notification
	labResults    map[int64]*model.LabResult
	profiles      map[int64]*model.Profile

	userSeq, patientSeq, appointmentSeq, notificationSeq, labResultSeq, profileSeq int64
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[int64]*model.User),
		appointments:  make(map[int64]*model.Appointment),
		notifications: make(map[int64]*model.Notification),
		labResults:    make(map[int64]*model.LabResult),
		profiles:      make(map[int64]*model.Profile),
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Repositories returns every repository backed by s.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:         &userRepository{s},
		Appointments:  &appointmentRepository{s},
		Notifications: &notificationRepository{s},
		LabResults:    &labResultRepository{s},
		Profiles:      &profileRepository{s},
	}
}

// deleteUserLocked removes a user and everything that references it.
func (s *Store) deleteUserLocked(id int64) {
	delete(s.users, id)
	for aid, a := range s.appointments {
		if a.UserID == id {
			delete(s.appointments, aid)
		}
	}
	for nid, n := range s.notifications {
		if n.OwnedBy(id) {
			delete(s.notifications, nid)
		}
	}
	for lid, l := range s.labResults {
		if l.UserID == id {
			delete(s.labResults, lid)
		}
	}
	for pid, p := range s.profiles {
		if p.UserID == id {
			delete(s.profiles, pid)
		}
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
