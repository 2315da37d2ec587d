package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
)

const measurementColumns = `id, patient_id, visit_id, metric_name, metric_code,
	value_numeric, value_text, value_json, unit, notes, measured_at, created_at, updated_at`

type measurementRepository struct {
	db sqlx.ExtContext
}

func NewMeasurementRepository(db sqlx.ExtContext) repository.MeasurementRepository {
	return &measurementRepository{db: db}
}

// Create stores the measurement. A zero MeasuredAt defaults to the insert time.
func (r *measurementRepository) Create(ctx context.Context, m *model.Measurement) error {
	var measuredAt interface{}
	if !m.MeasuredAt.IsZero() {
		measuredAt = m.MeasuredAt
	}

	query := `
		INSERT INTO measurements (
			patient_id, visit_id, metric_name, metric_code, value_numeric,
			value_text, value_json, unit, notes, measured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, NOW()))
		RETURNING id, measured_at, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		m.PatientID,
		m.VisitID,
		m.MetricName,
		m.MetricCode,
		m.ValueNumeric,
		m.ValueText,
		m.ValueJSON,
		m.Unit,
		m.Notes,
		measuredAt,
	).Scan(&m.ID, &m.MeasuredAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create measurement: %w", mapError(err))
	}
	return nil
}

func (r *measurementRepository) Get(ctx context.Context, id int64) (*model.Measurement, error) {
	return r.getOne(ctx, `SELECT `+measurementColumns+` FROM measurements WHERE id = $1`, id)
}

func (r *measurementRepository) GetForUpdate(ctx context.Context, id int64) (*model.Measurement, error) {
	return r.getOne(ctx, `SELECT `+measurementColumns+` FROM measurements WHERE id = $1 FOR UPDATE`, id)
}

func (r *measurementRepository) getOne(ctx context.Context, query string, id int64) (*model.Measurement, error) {
	var m model.Measurement
	if err := sqlx.GetContext(ctx, r.db, &m, query, id); err != nil {
		return nil, fmt.Errorf("failed to get measurement: %w", mapError(err))
	}
	return &m, nil
}

func (r *measurementRepository) ListByPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Measurement, error) {
	query := `SELECT ` + measurementColumns + ` FROM measurements WHERE patient_id = $1 ORDER BY id OFFSET $2 LIMIT $3`
	measurements := []*model.Measurement{}
	if err := sqlx.SelectContext(ctx, r.db, &measurements, query, patientID, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", mapError(err))
	}
	return measurements, nil
}

func (r *measurementRepository) Update(ctx context.Context, m *model.Measurement) error {
	query := `
		UPDATE measurements SET
			visit_id = $1, metric_name = $2, metric_code = $3, value_numeric = $4,
			value_text = $5, value_json = $6, unit = $7, notes = $8, measured_at = $9,
			updated_at = NOW()
		WHERE id = $10
		RETURNING patient_id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		m.VisitID,
		m.MetricName,
		m.MetricCode,
		m.ValueNumeric,
		m.ValueText,
		m.ValueJSON,
		m.Unit,
		m.Notes,
		m.MeasuredAt,
		m.ID,
	).Scan(&m.PatientID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update measurement: %w", mapError(err))
	}
	return nil
}

func (r *measurementRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete measurement: %w", mapError(err))
	}
	return requireAffected(result, "measurement")
}
