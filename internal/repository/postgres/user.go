package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/pulse-api/internal/model"
)

const userColumns = `id, patient_id, email, password_hash, role, created_at`

// Create assigns the patient identifier from patient_id_seq inside the same
// transaction as the insert.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		user.PatientID = nil
		if user.Role == model.RolePatient {
			var seq int64
			if err := tx.GetContext(ctx, &seq, `SELECT nextval('patient_id_seq')`); err != nil {
				return wrap("allocate patient id", err)
			}
			pid := model.FormatPatientID(seq)
			user.PatientID = &pid
		}

		query := `
			INSERT INTO users (patient_id, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		err := tx.QueryRowxContext(ctx, query,
			user.PatientID,
			user.Email,
			user.PasswordHash,
			user.Role,
		).Scan(&user.ID, &user.CreatedAt)
		return wrap("create user", err)
	})
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return nil, wrap("get user by email", err)
	}
	return &user, nil
}

func (r *userRepository) GetByPatientID(ctx context.Context, patientID string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, wrap("get user by patient id", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $1, password_hash = $2 WHERE id = $3`,
		user.Email, user.PasswordHash, user.ID,
	)
	if err != nil {
		return wrap("update user", err)
	}
	return requireRows("update user", result)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrap("delete user", err)
	}
	return requireRows("delete user", result)
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}
