package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/trials-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation is returned when a write breaks a unique index.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrForeignKeyViolation is returned when a write references a missing parent.
	ErrForeignKeyViolation = errors.New("foreign key violation")
	// ErrUnavailable is returned while the database is being shed after
	// repeated connection failures.
	ErrUnavailable = errors.New("database unavailable")
)

// All repository interfaces in one file
type (
	// Store hands out repositories bound to either the connection pool or a
	// single transaction.
	Store interface {
		Patients() PatientRepository
		Visits() VisitRepository
		Measurements() MeasurementRepository
		// WithTx runs fn inside one transaction; fn's error rolls it back.
		// Calling WithTx on a transactional Store reuses the transaction.
		WithTx(ctx context.Context, fn func(Store) error) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		GetForUpdate(ctx context.Context, id int64) (*model.Patient, error)
		GetByCode(ctx context.Context, code string) (*model.Patient, error)
		List(ctx context.Context, offset, limit int) ([]*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		UpdateStatus(ctx context.Context, id int64, status model.PatientStatus) (*model.Patient, error)
		Delete(ctx context.Context, id int64) error
	}

	VisitRepository interface {
		Create(ctx context.Context, visit *model.Visit) error
		Get(ctx context.Context, id int64) (*model.Visit, error)
		GetForUpdate(ctx context.Context, id int64) (*model.Visit, error)
		ListByPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Visit, error)
		Update(ctx context.Context, visit *model.Visit) error
		Delete(ctx context.Context, id int64) error
	}

	MeasurementRepository interface {
		Create(ctx context.Context, measurement *model.Measurement) error
		Get(ctx context.Context, id int64) (*model.Measurement, error)
		GetForUpdate(ctx context.Context, id int64) (*model.Measurement, error)
		ListByPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Measurement, error)
		Update(ctx context.Context, measurement *model.Measurement) error
		Delete(ctx context.Context, id int64) error
	}
)
