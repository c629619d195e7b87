package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
)

type labResultRepository struct {
	s *Store
}

func cloneLabResult(l *model.LabResult) *model.LabResult {
	c := *l
	c.PatientID = copyString(l.PatientID)
	return &c
}

func (r *labResultRepository) Create(ctx context.Context, result *model.LabResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[result.UserID]; !ok {
		return repository.ErrNotFound
	}

	r.s.labResultSeq++
	result.ID = r.s.labResultSeq
	result.CreatedAt = r.s.now()
	r.s.labResults[result.ID] = cloneLabResult(result)
	return nil
}

func (r *labResultRepository) Get(ctx context.Context, id int64) (*model.LabResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.labResults[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneLabResult(l), nil
}

func (r *labResultRepository) Update(ctx context.Context, result *model.LabResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.labResults[result.ID]
	if !ok {
		return repository.ErrNotFound
	}
	result.CreatedAt = current.CreatedAt
	r.s.labResults[result.ID] = cloneLabResult(result)
	return nil
}

func (r *labResultRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.labResults[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.labResults, id)
	return nil
}

func (r *labResultRepository) ListByUser(ctx context.Context, userID int64) ([]*model.LabResult, error) {
	return r.list(func(l *model.LabResult) bool { return l.UserID == userID }), nil
}

func (r *labResultRepository) List(ctx context.Context) ([]*model.LabResult, error) {
	return r.list(func(*model.LabResult) bool { return true }), nil
}

func (r *labResultRepository) LatestForUser(ctx context.Context, userID int64) (*model.LabResult, error) {
	results := r.list(func(l *model.LabResult) bool { return l.UserID == userID })
	if len(results) == 0 {
		return nil, repository.ErrNotFound
	}
	return results[0], nil
}

func (r *labResultRepository) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.labResults), nil
}

func (r *labResultRepository) list(match func(*model.LabResult) bool) []*model.LabResult {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.LabResult, 0)
	for _, l := range r.s.labResults {
		if match(l) {
			out = append(out, cloneLabResult(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
