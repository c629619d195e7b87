package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/pulse-api/internal/model"
)

const notificationColumns = `id, message, type, recipient_type, user_id, patient_id, is_read, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (message, type, recipient_type, user_id, patient_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		n.Message,
		n.Type,
		n.RecipientType,
		n.UserID,
		n.PatientID,
		n.IsRead,
	).Scan(&n.ID, &n.CreatedAt)
	return wrap("create notification", err)
}

func (r *notificationRepository) Get(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get notification", err)
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET message = $1, type = $2, is_read = $3 WHERE id = $4`,
		n.Message, n.Type, n.IsRead, n.ID,
	)
	if err != nil {
		return wrap("update notification", err)
	}
	return requireRows("update notification", result)
}

func (r *notificationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return wrap("delete notification", err)
	}
	return requireRows("delete notification", result)
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE recipient_type = 'user' AND user_id = $1
		ORDER BY created_at DESC, id DESC`
	out := []*model.Notification{}
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, wrap("list user notifications", err)
	}
	return out, nil
}

func (r *notificationRepository) ListForAdmin(ctx context.Context) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE recipient_type = 'admin'
		ORDER BY created_at DESC, id DESC`
	out := []*model.Notification{}
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, wrap("list admin notifications", err)
	}
	return out, nil
}

func (r *notificationRepository) MarkAllReadForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_type = 'user' AND user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, wrap("mark user notifications read", err)
	}
	return result.RowsAffected()
}

func (r *notificationRepository) MarkAllReadForAdmin(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_type = 'admin' AND is_read = FALSE`)
	if err != nil {
		return 0, wrap("mark admin notifications read", err)
	}
	return result.RowsAffected()
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, wrap("purge notifications", err)
	}
	return result.RowsAffected()
}
