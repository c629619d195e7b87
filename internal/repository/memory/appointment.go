package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
)

type appointmentRepository struct {
	s *Store
}

func cloneAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	c.PatientID = copyString(a.PatientID)
	c.Patient = nil
	return &c
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[appointment.UserID]; !ok {
		return repository.ErrNotFound
	}

	r.s.appointmentSeq++
	now := r.s.now()
	appointment.ID = r.s.appointmentSeq
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	r.s.appointments[appointment.ID] = cloneAppointment(appointment)
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withPatient(a), nil
}

func (r *appointmentRepository) GetForUser(ctx context.Context, id, userID int64) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return r.withPatient(a), nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.appointments[appointment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	appointment.CreatedAt = current.CreatedAt
	appointment.UpdatedAt = r.s.now()
	r.s.appointments[appointment.ID] = cloneAppointment(appointment)
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Appointment, 0)
	for _, a := range r.s.appointments {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && a.UserID != *filter.UserID {
			continue
		}
		if filter.From != nil && a.Date.Before(filter.From.Time) {
			continue
		}
		out = append(out, r.withPatient(a))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *appointmentRepository) CountOnDate(ctx context.Context, date model.CalendarDate) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, a := range r.s.appointments {
		if a.Date.Equal(date.Time) {
			n++
		}
	}
	return n, nil
}

// withPatient must be called with the lock held.
func (r *appointmentRepository) withPatient(a *model.Appointment) *model.Appointment {
	c := cloneAppointment(a)
	if u, ok := r.s.users[a.UserID]; ok {
		c.Patient = u.Summary()
		c.Patient.PatientID = copyString(u.PatientID)
	}
	return c
}
