package model

import (
	"time"
)

type VisitType string

const (
	VisitTypeScreening VisitType = "screening"
	VisitTypeBaseline  VisitType = "baseline"
	VisitTypeTreatment VisitType = "treatment"
	VisitTypeFollowUp  VisitType = "follow_up"
)

type Visit struct {
	ID        int64      `db:"id" json:"id"`
	PatientID int64      `db:"patient_id" json:"patient_id"`
	VisitDate time.Time  `db:"visit_date" json:"visit_date"`
	VisitType VisitType  `db:"visit_type" json:"visit_type"`
	Notes     *string    `db:"notes" json:"notes"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at"`
}

type CreateVisitRequest struct {
	VisitDate time.Time `json:"visit_date" binding:"required"`
	VisitType VisitType `json:"visit_type" binding:"required,oneof=screening baseline treatment follow_up"`
	Notes     *string   `json:"notes"`
}

func (r *CreateVisitRequest) ToVisit(patientID int64) *Visit {
	return &Visit{
		PatientID: patientID,
		VisitDate: r.VisitDate,
		VisitType: r.VisitType,
		Notes:     r.Notes,
	}
}

type UpdateVisitRequest struct {
	VisitDate *time.Time       `json:"visit_date"`
	VisitType *VisitType       `json:"visit_type" binding:"omitempty,oneof=screening baseline treatment follow_up"`
	Notes     Optional[string] `json:"notes"`
}

func (r *UpdateVisitRequest) ApplyTo(v *Visit) {
	if r.VisitDate != nil {
		v.VisitDate = *r.VisitDate
	}
	if r.VisitType != nil {
		v.VisitType = *r.VisitType
	}
	r.Notes.ApplyTo(&v.Notes)
}
