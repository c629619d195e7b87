package postgres

import (
	"context"

	"github.com/jwalitptl/pulse-api/internal/model"
)

const labResultColumns = `id, user_id, patient_id, title, description, file_key, is_sent, created_at`

func (r *labResultRepository) Create(ctx context.Context, l *model.LabResult) error {
	query := `
		INSERT INTO lab_results (user_id, patient_id, title, description, file_key, is_sent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		l.UserID,
		l.PatientID,
		l.Title,
		l.Description,
		l.FileKey,
		l.IsSent,
	).Scan(&l.ID, &l.CreatedAt)
	return wrap("create lab result", err)
}

func (r *labResultRepository) Get(ctx context.Context, id int64) (*model.LabResult, error) {
	var l model.LabResult
	err := r.db.GetContext(ctx, &l, `SELECT `+labResultColumns+` FROM lab_results WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get lab result", err)
	}
	return &l, nil
}

func (r *labResultRepository) Update(ctx context.Context, l *model.LabResult) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE lab_results SET title = $1, description = $2, file_key = $3, is_sent = $4
		WHERE id = $5`,
		l.Title, l.Description, l.FileKey, l.IsSent, l.ID,
	)
	if err != nil {
		return wrap("update lab result", err)
	}
	return requireRows("update lab result", result)
}

func (r *labResultRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lab_results WHERE id = $1`, id)
	if err != nil {
		return wrap("delete lab result", err)
	}
	return requireRows("delete lab result", result)
}

func (r *labResultRepository) ListByUser(ctx context.Context, userID int64) ([]*model.LabResult, error) {
	out := []*model.LabResult{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+labResultColumns+` FROM lab_results
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, wrap("list lab results", err)
	}
	return out, nil
}

func (r *labResultRepository) List(ctx context.Context) ([]*model.LabResult, error) {
	out := []*model.LabResult{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+labResultColumns+` FROM lab_results
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrap("list lab results", err)
	}
	return out, nil
}

func (r *labResultRepository) LatestForUser(ctx context.Context, userID int64) (*model.LabResult, error) {
	var l model.LabResult
	err := r.db.GetContext(ctx, &l, `SELECT `+labResultColumns+` FROM lab_results
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	if err != nil {
		return nil, wrap("get latest lab result", err)
	}
	return &l, nil
}

func (r *labResultRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM lab_results`); err != nil {
		return 0, wrap("count lab results", err)
	}
	return n, nil
}
