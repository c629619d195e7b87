package postgres

import (
	"context"

	"github.com/lib/pq"

	"github.com/jwalitptl/pulse-api/internal/model"
)

const profileColumns = `id, user_id, patient_id, name, relative, date_of_birth, gender,
	weight, height, blood_type, phone_number, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, patient_id, name, relative, date_of_birth, gender,
			weight, height, blood_type, phone_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.UserID,
		p.PatientID,
		p.Name,
		p.Relative,
		p.DateOfBirth,
		p.Gender,
		p.Weight,
		p.Height,
		p.BloodType,
		p.PhoneNumber,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return wrap("create profile", err)
}

func (r *profileRepository) Get(ctx context.Context, id int64) (*model.Profile, error) {
	return r.getBy(ctx, "get profile", `id = $1`, id)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	return r.getBy(ctx, "get profile by user", `user_id = $1`, userID)
}

func (r *profileRepository) GetByPatientID(ctx context.Context, patientID string) (*model.Profile, error) {
	return r.getBy(ctx, "get profile by patient id", `patient_id = $1`, patientID)
}

func (r *profileRepository) getBy(ctx context.Context, op, where string, arg interface{}) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE `+where, arg); err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}

func (r *profileRepository) Update(ctx context.Context, p *model.Profile) error {
	query := `
		UPDATE profiles
		SET name = $1, relative = $2, date_of_birth = $3, gender = $4, weight = $5,
			height = $6, blood_type = $7, phone_number = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.Name,
		p.Relative,
		p.DateOfBirth,
		p.Gender,
		p.Weight,
		p.Height,
		p.BloodType,
		p.PhoneNumber,
		p.ID,
	).Scan(&p.UpdatedAt)
	return wrap("update profile", err)
}

func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return wrap("delete profile", err)
	}
	return requireRows("delete profile", result)
}

func (r *profileRepository) List(ctx context.Context) ([]*model.Profile, error) {
	out := []*model.Profile{}
	if err := r.db.SelectContext(ctx, &out, `SELECT `+profileColumns+` FROM profiles ORDER BY id`); err != nil {
		return nil, wrap("list profiles", err)
	}
	return out, nil
}

func (r *profileRepository) NamesByUserIDs(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	var rows []struct {
		UserID int64  `db:"user_id"`
		Name   string `db:"name"`
	}
	query := `SELECT user_id, name FROM profiles WHERE user_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, wrap("list profile names", err)
	}
	for _, row := range rows {
		names[row.UserID] = row.Name
	}
	return names, nil
}
