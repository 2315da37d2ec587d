package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/repository"
	"github.com/jwalitptl/trials-api/internal/service/patient"
	apperrors "github.com/jwalitptl/trials-api/pkg/errors"
)

var (
	ErrVisitNotFound        = apperrors.NotFound("visit", nil)
	ErrVisitPatientMismatch = apperrors.Conflict("visit does not belong to this patient", nil)
)

type VisitService interface {
	Get(ctx context.Context, visitID int64) (*model.Visit, error)
	GetForPatient(ctx context.Context, patientID, visitID int64) (*model.Visit, error)
	ListForPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Visit, error)
	CreateForPatient(ctx context.Context, patientID int64, req *model.CreateVisitRequest) (*model.Visit, error)
	UpdateForPatient(ctx context.Context, patientID, visitID int64, req *model.UpdateVisitRequest) (*model.Visit, error)
	DeleteForPatient(ctx context.Context, patientID, visitID int64) error
}

type Service struct {
	store    repository.Store
	patients *patient.Service
}

func NewService(store repository.Store, patients *patient.Service) *Service {
	return &Service{store: store, patients: patients}
}

// WithStore returns a copy bound to store, typically a transaction owned by
// another service.
func (s *Service) WithStore(store repository.Store) *Service {
	return &Service{store: store, patients: s.patients.WithStore(store)}
}

// Lock fetches the visit with a row lock and checks it belongs to patientID.
// Only meaningful inside WithTx.
func (s *Service) Lock(ctx context.Context, patientID, visitID int64) (*model.Visit, error) {
	return s.resolve(ctx, s.store.Visits().GetForUpdate, patientID, visitID)
}

func (s *Service) Get(ctx context.Context, visitID int64) (*model.Visit, error) {
	visit, err := s.store.Visits().Get(ctx, visitID)
	if err != nil {
		return nil, translate(err, "get")
	}
	return visit, nil
}

// GetForPatient resolves a visit through its owner: a missing visit is
// NotFound, a visit owned by someone else is a Conflict.
func (s *Service) GetForPatient(ctx context.Context, patientID, visitID int64) (*model.Visit, error) {
	return s.resolve(ctx, s.store.Visits().Get, patientID, visitID)
}

func (s *Service) resolve(
	ctx context.Context,
	get func(context.Context, int64) (*model.Visit, error),
	patientID, visitID int64,
) (*model.Visit, error) {
	visit, err := get(ctx, visitID)
	if err != nil {
		return nil, translate(err, "get")
	}
	if visit.PatientID != patientID {
		return nil, ErrVisitPatientMismatch
	}
	return visit, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID int64, offset, limit int) ([]*model.Visit, error) {
	visits, err := s.store.Visits().ListByPatient(ctx, patientID, offset, limit)
	if err != nil {
		return nil, translate(err, "list")
	}
	return visits, nil
}

func (s *Service) CreateForPatient(ctx context.Context, patientID int64, req *model.CreateVisitRequest) (*model.Visit, error) {
	visit := req.ToVisit(patientID)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.patients.WithStore(tx).Lock(ctx, patientID); err != nil {
			return err
		}
		return tx.Visits().Create(ctx, visit)
	})
	if err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, translate(err, "create")
	}

	log.Ctx(ctx).Info().
		Int64("patient_id", patientID).
		Int64("visit_id", visit.ID).
		Str("visit_type", string(visit.VisitType)).
		Msg("visit created")
	return visit, nil
}

func (s *Service) UpdateForPatient(ctx context.Context, patientID, visitID int64, req *model.UpdateVisitRequest) (*model.Visit, error) {
	var visit *model.Visit
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		visit, err = s.resolve(ctx, tx.Visits().GetForUpdate, patientID, visitID)
		if err != nil {
			return err
		}
		req.ApplyTo(visit)
		return tx.Visits().Update(ctx, visit)
	})
	if err != nil {
		return nil, translate(err, "update")
	}

	log.Ctx(ctx).Info().Int64("patient_id", patientID).Int64("visit_id", visitID).Msg("visit updated")
	return visit, nil
}

// DeleteForPatient removes the visit and every measurement recorded at it.
func (s *Service) DeleteForPatient(ctx context.Context, patientID, visitID int64) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.resolve(ctx, tx.Visits().GetForUpdate, patientID, visitID); err != nil {
			return err
		}
		return tx.Visits().Delete(ctx, visitID)
	})
	if err != nil {
		return translate(err, "delete")
	}

	log.Ctx(ctx).Info().Int64("patient_id", patientID).Int64("visit_id", visitID).Msg("visit deleted")
	return nil
}

func translate(err error, op string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrVisitNotFound
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.Unavailable(err)
	default:
		return apperrors.Internal(fmt.Errorf("failed to %s visit: %w", op, err))
	}
}
