package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
)

type profileRepository struct {
	s *Store
}

func cloneProfile(p *model.Profile) *model.Profile {
	c := *p
	c.PatientID = copyString(p.PatientID)
	c.Weight = copyFloat(p.Weight)
	c.Height = copyFloat(p.Height)
	c.BloodType = copyString(p.BloodType)
	c.PhoneNumber = copyString(p.PhoneNumber)
	c.User = nil
	return &c
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[profile.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.profiles {
		if p.UserID == profile.UserID {
			return repository.ErrDuplicate
		}
	}

	r.s.profileSeq++
	now := r.s.now()
	profile.ID = r.s.profileSeq
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *profileRepository) Get(ctx context.Context, id int64) (*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	return r.find(func(p *model.Profile) bool { return p.UserID == userID })
}

func (r *profileRepository) GetByPatientID(ctx context.Context, patientID string) (*model.Profile, error) {
	return r.find(func(p *model.Profile) bool {
		return p.PatientID != nil && *p.PatientID == patientID
	})
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.profiles[profile.ID]
	if !ok {
		return repository.ErrNotFound
	}
	profile.CreatedAt = current.CreatedAt
	profile.UpdatedAt = r.s.now()
	r.s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.profiles, id)
	return nil
}

func (r *profileRepository) List(ctx context.Context) ([]*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *profileRepository) NamesByUserIDs(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	names := make(map[int64]string)
	for _, p := range r.s.profiles {
		if _, ok := wanted[p.UserID]; ok {
			names[p.UserID] = p.Name
		}
	}
	return names, nil
}

func (r *profileRepository) find(match func(*model.Profile) bool) (*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.profiles {
		if match(p) {
			return cloneProfile(p), nil
		}
	}
	return nil, repository.ErrNotFound
}
