package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/pulse-api/internal/model"
)

// appointmentRow flattens the patient join.
type appointmentRow struct {
	model.Appointment
	PatientUserID    int64   `db:"patient_user_id"`
	PatientEmail     string  `db:"patient_email"`
	PatientPatientID *string `db:"patient_patient_id"`
}

func (row *appointmentRow) toModel() *model.Appointment {
	a := row.Appointment
	a.Patient = &model.UserSummary{
		ID:        row.PatientUserID,
		PatientID: row.PatientPatientID,
		Email:     row.PatientEmail,
	}
	return &a
}

const appointmentSelect = `
	SELECT a.id, a.user_id, a.patient_id, a.test_type, a.date, a.time,
		   a.status, a.created_at, a.updated_at,
		   u.id AS patient_user_id, u.email AS patient_email,
		   u.patient_id AS patient_patient_id
	FROM appointments a
	JOIN users u ON u.id = a.user_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (user_id, patient_id, test_type, date, time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		appointment.UserID,
		appointment.PatientID,
		appointment.TestType,
		appointment.Date,
		appointment.Time,
		appointment.Status,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)
	return wrap("create appointment", err)
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var row appointmentRow
	if err := r.db.GetContext(ctx, &row, appointmentSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, wrap("get appointment", err)
	}
	return row.toModel(), nil
}

func (r *appointmentRepository) GetForUser(ctx context.Context, id, userID int64) (*model.Appointment, error) {
	var row appointmentRow
	err := r.db.GetContext(ctx, &row, appointmentSelect+` WHERE a.id = $1 AND a.user_id = $2`, id, userID)
	if err != nil {
		return nil, wrap("get appointment", err)
	}
	return row.toModel(), nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET test_type = $1, date = $2, time = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		appointment.TestType,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.ID,
	).Scan(&appointment.UpdatedAt)
	return wrap("update appointment", err)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return wrap("delete appointment", err)
	}
	return requireRows("delete appointment", result)
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	query := appointmentSelect + ` WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND a.user_id = $%d", argCount)
		args = append(args, *filter.UserID)
		argCount++
	}

	if filter.From != nil {
		query += fmt.Sprintf(" AND a.date >= $%d", argCount)
		args = append(args, *filter.From)
		argCount++
	}

	query += " ORDER BY a.date ASC, a.time ASC, a.id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}

	var rows []appointmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap("list appointments", err)
	}

	appointments := make([]*model.Appointment, 0, len(rows))
	for i := range rows {
		appointments = append(appointments, rows[i].toModel())
	}
	return appointments, nil
}

func (r *appointmentRepository) CountOnDate(ctx context.Context, date model.CalendarDate) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM appointments WHERE date = $1`, date); err != nil {
		return 0, wrap("count appointments", err)
	}
	return n, nil
}
