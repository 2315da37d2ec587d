package measurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
	"github.com/jwalitptl/trials-api/internal/service/visit"
	apperrors "github.com/jwalitptl/trials-api/pkg/errors"
)

var (
	ErrMeasurementNotFound = apperrors.NotFound("measurement", nil)
	ErrPatientMissing      = apperrors.Conflict("patient does not exist", nil)
	ErrVisitNotLinked      = apperrors.Conflict("visit does not exist for this patient", nil)
)

type MeasurementService interface {
	Get(ctx context.Context, measurementID int64) (*model.Measurement, error)
	GetForPatient(ctx context.Context, patientID, measurementID int64) (*model.Measurement, error)
	ListForPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Measurement, error)
	CreateForPatient(ctx context.Context, patientID int64, req *model.CreateMeasurementRequest) (*model.Measurement, error)
	UpdateForPatient(ctx context.Context, patientID, measurementID int64, req *model.UpdateMeasurementRequest) (*model.Measurement, error)
	DeleteForPatient(ctx context.Context, patientID, measurementID int64) error
}

type Service struct {
	store  repository.Store
	visits *visit.Service
}

func NewService(store repository.Store, visits *visit.Service) *Service {
	return &Service{store: store, visits: visits}
}

func (s *Service) Get(ctx context.Context, measurementID int64) (*model.Measurement, error) {
	m, err := s.store.Measurements().Get(ctx, measurementID)
	if err != nil {
		return nil, translate(err, "get")
	}
	return m, nil
}

// GetForPatient treats a measurement owned by another patient as missing.
func (s *Service) GetForPatient(ctx context.Context, patientID, measurementID int64) (*model.Measurement, error) {
	return owned(ctx, s.store.Measurements().Get, patientID, measurementID)
}

func owned(
	ctx context.Context,
	get func(context.Context, int64) (*model.Measurement, error),
	patientID, measurementID int64,
) (*model.Measurement, error) {
	m, err := get(ctx, measurementID)
	if err != nil {
		return nil, translate(err, "get")
	}
	if m.PatientID != patientID {
		return nil, ErrMeasurementNotFound
	}
	return m, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Measurement, error) {
	measurements, err := s.store.Measurements().ListByPatient(ctx, patientID, offset, limit)
	if err != nil {
		return nil, translate(err, "list")
	}
	return measurements, nil
}

// CreateForPatient checks the patient, and the visit when one is given, in
// the same transaction as the insert.
func (s *Service) CreateForPatient(ctx context.Context, patientID int64, req *model.CreateMeasurementRequest) (*model.Measurement, error) {
	m := req.ToMeasurement(patientID)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().GetForUpdate(ctx, patientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPatientMissing
			}
			return err
		}

		if m.VisitID != nil {
			_, err := s.visits.WithStore(tx).Lock(ctx, patientID, *m.VisitID)
			if errors.Is(err, visit.ErrVisitNotFound) || errors.Is(err, visit.ErrVisitPatientMismatch) {
				return ErrVisitNotLinked
			}
			if err != nil {
				return err
			}
		}

		return tx.Measurements().Create(ctx, m)
	})
	if err != nil {
		return nil, translate(err, "create")
	}

	log.Ctx(ctx).Info().
		Int64("patient_id", patientID).
		Int64("measurement_id", m.ID).
		Str("metric_name", m.MetricName).
		Str("value_kind", string(m.Kind())).
		Msg("measurement recorded")
	return m, nil
}

// UpdateForPatient applies the patch as given. A new visit_id is not checked
// against the patient; only the foreign key guards it.
func (s *Service) UpdateForPatient(ctx context.Context, patientID, measurementID int64, req *model.UpdateMeasurementRequest) (*model.Measurement, error) {
	var m *model.Measurement
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		m, err = owned(ctx, tx.Measurements().GetForUpdate, patientID, measurementID)
		if err != nil {
			return err
		}
		req.ApplyTo(m)
		return tx.Measurements().Update(ctx, m)
	})
	if err != nil {
		return nil, translate(err, "update")
	}

	log.Ctx(ctx).Info().Int64("patient_id", patientID).Int64("measurement_id", measurementID).Msg("measurement updated")
	return m, nil
}

func (s *Service) DeleteForPatient(ctx context.Context, patientID, measurementID int64) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := owned(ctx, tx.Measurements().GetForUpdate, patientID, measurementID); err != nil {
			return err
		}
		return tx.Measurements().Delete(ctx, measurementID)
	})
	if err != nil {
		return translate(err, "delete")
	}

	log.Ctx(ctx).Info().Int64("patient_id", patientID).Int64("measurement_id", measurementID).Msg("measurement deleted")
	return nil
}

func translate(err error, op string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrMeasurementNotFound
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return ErrVisitNotLinked
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.Unavailable(err)
	default:
		return apperrors.Internal(fmt.Errorf("failed to %s measurement: %w", op, err))
	}
}
