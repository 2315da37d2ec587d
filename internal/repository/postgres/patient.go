package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
)

const patientColumns = `id, patient_code, first_name, last_name, birth_date, gender, status,
	email, phone, medical_history, baseline_data, enrollment_date, completion_date,
	created_at, updated_at`

type patientRepository struct {
	db sqlx.ExtContext
}

func NewPatientRepository(db sqlx.ExtContext) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			patient_code, first_name, last_name, birth_date, gender, status,
			email, phone, medical_history, baseline_data, enrollment_date, completion_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		patient.PatientCode,
		patient.FirstName,
		patient.LastName,
		patient.BirthDate,
		patient.Gender,
		patient.Status,
		patient.Email,
		patient.Phone,
		patient.MedicalHistory,
		patient.BaselineData,
		patient.EnrollmentDate,
		patient.CompletionDate,
	).Scan(&patient.ID, &patient.CreatedAt, &patient.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", mapError(err))
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
}

func (r *patientRepository) GetForUpdate(ctx context.Context, id int64) (*model.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1 FOR UPDATE`, id)
}

func (r *patientRepository) GetByCode(ctx context.Context, code string) (*model.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_code = $1`, code)
}

func (r *patientRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Patient, error) {
	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.db, &patient, query, arg); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", mapError(err))
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, offset, limit int) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY id OFFSET $1 LIMIT $2`
	patients := []*model.Patient{}
	if err := sqlx.SelectContext(ctx, r.db, &patients, query, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", mapError(err))
	}
	return patients, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			first_name = $1, last_name = $2, birth_date = $3, gender = $4, status = $5,
			email = $6, phone = $7, medical_history = $8, baseline_data = $9,
			enrollment_date = $10, completion_date = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.BirthDate,
		patient.Gender,
		patient.Status,
		patient.Email,
		patient.Phone,
		patient.MedicalHistory,
		patient.BaselineData,
		patient.EnrollmentDate,
		patient.CompletionDate,
		patient.ID,
	).Scan(&patient.CreatedAt, &patient.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", mapError(err))
	}
	return nil
}

func (r *patientRepository) UpdateStatus(ctx context.Context, id int64, status model.PatientStatus) (*model.Patient, error) {
	query := `UPDATE patients SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + patientColumns
	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.db, &patient, query, status, id); err != nil {
		return nil, fmt.Errorf("failed to update patient status: %w", mapError(err))
	}
	return &patient, nil
}

func (r *patientRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", mapError(err))
	}
	return requireAffected(result, "patient")
}
