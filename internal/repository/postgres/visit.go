package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
)

const visitColumns = `id, patient_id, visit_date, visit_type, notes, created_at, updated_at`

type visitRepository struct {
	db sqlx.ExtContext
}

func NewVisitRepository(db sqlx.ExtContext) repository.VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	query := `
		INSERT INTO visits (patient_id, visit_date, visit_type, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		visit.PatientID,
		visit.VisitDate,
		visit.VisitType,
		visit.Notes,
	).Scan(&visit.ID, &visit.CreatedAt, &visit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", mapError(err))
	}
	return nil
}

func (r *visitRepository) Get(ctx context.Context, id int64) (*model.Visit, error) {
	return r.getOne(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id)
}

func (r *visitRepository) GetForUpdate(ctx context.Context, id int64) (*model.Visit, error) {
	return r.getOne(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1 FOR UPDATE`, id)
}

func (r *visitRepository) getOne(ctx context.Context, query string, id int64) (*model.Visit, error) {
	var visit model.Visit
	if err := sqlx.GetContext(ctx, r.db, &visit, query, id); err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", mapError(err))
	}
	return &visit, nil
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE patient_id = $1 ORDER BY id OFFSET $2 LIMIT $3`
	visits := []*model.Visit{}
	if err := sqlx.SelectContext(ctx, r.db, &visits, query, patientID, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", mapError(err))
	}
	return visits, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	query := `
		UPDATE visits SET visit_date = $1, visit_type = $2, notes = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING patient_id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		visit.VisitDate,
		visit.VisitType,
		visit.Notes,
		visit.ID,
	).Scan(&visit.PatientID, &visit.CreatedAt, &visit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", mapError(err))
	}
	return nil
}

func (r *visitRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", mapError(err))
	}
	return requireAffected(result, "visit")
}
