package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

const (
	statsKey      = "dashboard:stats"
	upcomingLimit = 3
	unknownName   = "Unknown"
)

// Service computes the admin dashboard rollup and caches it for a short TTL.
type Service struct {
	repos   *repository.Repositories
	cache   *cache.Cache
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService builds the aggregator. A ttl of zero disables caching.
func NewService(repos *repository.Repositories, ttl time.Duration, m *metrics.Metrics) *Service {
	s := &Service{
		repos:   repos,
		metrics: m,
		now:     time.Now,
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func (s *Service) Stats(ctx context.Context) (*model.DashboardStats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(statsKey); ok {
			s.countCache("hit")
			return cached.(*model.DashboardStats), nil
		}
		s.countCache("miss")
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}

	if s.cache != nil {
		s.cache.SetDefault(statsKey, stats)
	}
	return stats, nil
}

// Invalidate drops the cached rollup.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(statsKey)
	}
}

func (s *Service) compute(ctx context.Context) (*model.DashboardStats, error) {
	today := model.NewCalendarDate(s.now().UTC())

	todays, err := s.repos.Appointments.CountOnDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	patients, err := s.repos.Users.CountByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}
	labResults, err := s.repos.LabResults.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count lab results: %w", err)
	}

	upcoming, err := s.repos.Appointments.List(ctx, model.AppointmentFilter{From: &today, Limit: upcomingLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}

	ids := make([]int64, 0, len(upcoming))
	for _, a := range upcoming {
		ids = append(ids, a.UserID)
	}
	names, err := s.repos.Profiles.NamesByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient names: %w", err)
	}

	stats := &model.DashboardStats{
		TotalAppointments:    todays,
		TotalPatients:        patients,
		TotalLabResults:      labResults,
		UpcomingAppointments: make([]model.UpcomingAppointment, 0, len(upcoming)),
	}
	for _, a := range upcoming {
		stats.UpcomingAppointments = append(stats.UpcomingAppointments, model.UpcomingAppointment{
			ID:          a.ID,
			Date:        a.Date.String(),
			Time:        a.Time,
			PatientName: patientName(a, names),
			TestType:    a.TestType,
		})
	}
	return stats, nil
}

func patientName(a *model.Appointment, names map[int64]string) string {
	if name := names[a.UserID]; name != "" {
		return name
	}
	if a.Patient != nil && a.Patient.Email != "" {
		return a.Patient.Email
	}
	return unknownName
}

func (s *Service) countCache(result string) {
	if s.metrics != nil {
		s.metrics.DashboardCache.WithLabelValues(result).Inc()
	}
}
