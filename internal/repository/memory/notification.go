package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/pulse-api/internal/model"
	"github.com/jwalitptl/pulse-api/internal/repository"
)

type notificationRepository struct {
	s *Store
}

func cloneNotification(n *model.Notification) *model.Notification {
	c := *n
	c.UserID = copyInt(n.UserID)
	c.PatientID = copyString(n.PatientID)
	return &c
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if notification.UserID != nil {
		if _, ok := r.s.users[*notification.UserID]; !ok {
			return repository.ErrNotFound
		}
	}

	r.s.notificationSeq++
	notification.ID = r.s.notificationSeq
	notification.CreatedAt = r.s.now()
	r.s.notifications[notification.ID] = cloneNotification(notification)
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id int64) (*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (r *notificationRepository) Update(ctx context.Context, notification *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.notifications[notification.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.notifications[notification.ID] = cloneNotification(notification)
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.notifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	return r.list(func(n *model.Notification) bool {
		return n.RecipientType == model.RecipientUser && n.OwnedBy(userID)
	}), nil
}

func (r *notificationRepository) ListForAdmin(ctx context.Context) ([]*model.Notification, error) {
	return r.list(func(n *model.Notification) bool {
		return n.RecipientType == model.RecipientAdmin
	}), nil
}

func (r *notificationRepository) MarkAllReadForUser(ctx context.Context, userID int64) (int64, error) {
	return r.markAll(func(n *model.Notification) bool {
		return n.RecipientType == model.RecipientUser && n.OwnedBy(userID)
	}), nil
}

func (r *notificationRepository) MarkAllReadForAdmin(ctx context.Context) (int64, error) {
	return r.markAll(func(n *model.Notification) bool {
		return n.RecipientType == model.RecipientAdmin
	}), nil
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, notification := range r.s.notifications {
		if notification.IsRead && notification.CreatedAt.Before(cutoff) {
			delete(r.s.notifications, id)
			n++
		}
	}
	return n, nil
}

func (r *notificationRepository) list(match func(*model.Notification) bool) []*model.Notification {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Notification, 0)
	for _, n := range r.s.notifications {
		if match(n) {
			out = append(out, cloneNotification(n))
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

func (r *notificationRepository) markAll(match func(*model.Notification) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var affected int64
	for _, n := range r.s.notifications {
		if !n.IsRead && match(n) {
			n.IsRead = true
			affected++
		}
	}
	return affected
}
