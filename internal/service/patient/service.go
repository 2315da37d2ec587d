package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
	apperrors "github.com/jwalitptl/trials-api/pkg/errors"
)

var (
	ErrPatientNotFound   = apperrors.NotFound("patient", nil)
	ErrPatientCodeExists = apperrors.Conflict("patient with this code already exists", nil)
)

type PatientService interface {
	GetByID(ctx context.Context, id int64) (*model.Patient, error)
	GetByCode(ctx context.Context, code string) (*model.Patient, error)
	List(ctx context.Context, offset, limit int) ([]*model.Patient, error)
	Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	Update(ctx context.Context, id int64, req *model.UpdatePatientRequest) (*model.Patient, error)
	UpdateStatus(ctx context.Context, id int64, status model.PatientStatus) (*model.Patient, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// WithStore returns a copy bound to store, typically a transaction owned by
// another service.
func (s *Service) WithStore(store repository.Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*model.Patient, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, translate(err, "get")
	}
	return patient, nil
}

// Lock fetches the patient with a row lock. Only meaningful inside WithTx.
func (s *Service) Lock(ctx context.Context, id int64) (*model.Patient, error) {
	patient, err := s.store.Patients().GetForUpdate(ctx, id)
	if err != nil {
		return nil, translate(err, "lock")
	}
	return patient, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*model.Patient, error) {
	patient, err := s.store.Patients().GetByCode(ctx, code)
	if err != nil {
		return nil, translate(err, "get")
	}
	return patient, nil
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*model.Patient, error) {
	patients, err := s.store.Patients().List(ctx, offset, limit)
	if err != nil {
		return nil, translate(err, "list")
	}
	return patients, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := req.ToPatient()

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		_, err := tx.Patients().GetByCode(ctx, patient.PatientCode)
		switch {
		case err == nil:
			return ErrPatientCodeExists
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return tx.Patients().Create(ctx, patient)
	})
	if err != nil {
		return nil, translate(err, "create")
	}

	log.Ctx(ctx).Info().
		Int64("patient_id", patient.ID).
		Str("patient_code", patient.PatientCode).
		Msg("patient created")
	return patient, nil
}

func (s *Service) Update(ctx context.Context, id int64, req *model.UpdatePatientRequest) (*model.Patient, error) {
	var patient *model.Patient
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		patient, err = tx.Patients().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		req.ApplyTo(patient)
		return tx.Patients().Update(ctx, patient)
	})
	if err != nil {
		return nil, translate(err, "update")
	}

	log.Ctx(ctx).Info().Int64("patient_id", id).Msg("patient updated")
	return patient, nil
}

// UpdateStatus sets the status alone. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.PatientStatus) (*model.Patient, error) {
	var patient *model.Patient
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		patient, err = tx.Patients().UpdateStatus(ctx, id, status)
		return err
	})
	if err != nil {
		return nil, translate(err, "update status of")
	}

	log.Ctx(ctx).Info().
		Int64("patient_id", id).
		Str("status", string(status)).
		Msg("patient status changed")
	return patient, nil
}

// Delete removes the patient together with its visits and measurements.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.Patients().Delete(ctx, id)
	})
	if err != nil {
		return translate(err, "delete")
	}

	log.Ctx(ctx).Info().Int64("patient_id", id).Msg("patient deleted")
	return nil
}

func translate(err error, op string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrPatientNotFound
	case errors.Is(err, repository.ErrUniqueViolation):
		return ErrPatientCodeExists
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.Unavailable(err)
	default:
		return apperrors.Internal(fmt.Errorf("failed to %s patient: %w", op, err))
	}
}
