package model

import (
	"encoding/json"
	"time"
)

// ValueKind names which of the three value columns a reader should use.
type ValueKind string

const (
	ValueKindNumeric ValueKind = "numeric"
	ValueKindText    ValueKind = "text"
	ValueKindJSON    ValueKind = "json"
	ValueKindNone    ValueKind = "none"
)

type Measurement struct {
	ID           int64      `db:"id" json:"id"`
	PatientID    int64      `db:"patient_id" json:"patient_id"`
	VisitID      *int64     `db:"visit_id" json:"visit_id"`
	MetricName   string     `db:"metric_name" json:"metric_name"`
	MetricCode   *string    `db:"metric_code" json:"metric_code"`
	ValueNumeric *float64   `db:"value_numeric" json:"value_numeric"`
	ValueText    *string    `db:"value_text" json:"value_text"`
	ValueJSON    JSONMap    `db:"value_json" json:"value_json"`
	Unit         *string    `db:"unit" json:"unit"`
	Notes        *string    `db:"notes" json:"notes"`
	MeasuredAt   time.Time  `db:"measured_at" json:"measured_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at"`
}

// Kind resolves the populated value column. The schema does not enforce
// exclusivity, so numeric wins over text and text over json.
func (m *Measurement) Kind() ValueKind {
	switch {
	case m.ValueNumeric != nil:
		return ValueKindNumeric
	case m.ValueText != nil:
		return ValueKindText
	case m.ValueJSON != nil:
		return ValueKindJSON
	default:
		return ValueKindNone
	}
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	type measurement Measurement
	return json.Marshal(struct {
		measurement
		ValueKind ValueKind `json:"value_kind"`
	}{measurement(m), m.Kind()})
}

type CreateMeasurementRequest struct {
	VisitID      *int64     `json:"visit_id" binding:"omitempty,gt=0"`
	MetricName   string     `json:"metric_name" binding:"required,max=100"`
	MetricCode   *string    `json:"metric_code" binding:"omitempty,max=50"`
	ValueNumeric *float64   `json:"value_numeric"`
	ValueText    *string    `json:"value_text"`
	ValueJSON    JSONMap    `json:"value_json"`
	Unit         *string    `json:"unit" binding:"omitempty,max=50"`
	Notes        *string    `json:"notes"`
	MeasuredAt   *time.Time `json:"measured_at"`
}

// ToMeasurement builds the row to insert. A zero MeasuredAt is filled in by
// the store with the insert time.
func (r *CreateMeasurementRequest) ToMeasurement(patientID int64) *Measurement {
	m := &Measurement{
		PatientID:    patientID,
		VisitID:      r.VisitID,
		MetricName:   r.MetricName,
		MetricCode:   r.MetricCode,
		ValueNumeric: r.ValueNumeric,
		ValueText:    r.ValueText,
		ValueJSON:    r.ValueJSON,
		Unit:         r.Unit,
		Notes:        r.Notes,
	}
	if r.MeasuredAt != nil {
		m.MeasuredAt = *r.MeasuredAt
	}
	return m
}

type UpdateMeasurementRequest struct {
	VisitID      Optional[int64]   `json:"visit_id" binding:"omitempty,gt=0"`
	MetricName   *string           `json:"metric_name" binding:"omitempty,min=1,max=100"`
	MetricCode   Optional[string]  `json:"metric_code" binding:"omitempty,max=50"`
	ValueNumeric Optional[float64] `json:"value_numeric"`
	ValueText    Optional[string]  `json:"value_text"`
	ValueJSON    Optional[JSONMap] `json:"value_json"`
	Unit         Optional[string]  `json:"unit" binding:"omitempty,max=50"`
	Notes        Optional[string]  `json:"notes"`
	MeasuredAt   *time.Time        `json:"measured_at"`
}

func (r *UpdateMeasurementRequest) ApplyTo(m *Measurement) {
	r.VisitID.ApplyTo(&m.VisitID)
	if r.MetricName != nil {
		m.MetricName = *r.MetricName
	}
	r.MetricCode.ApplyTo(&m.MetricCode)
	r.ValueNumeric.ApplyTo(&m.ValueNumeric)
	r.ValueText.ApplyTo(&m.ValueText)
	if r.ValueJSON.Set {
		m.ValueJSON = r.ValueJSON.Value
	}
	r.Unit.ApplyTo(&m.Unit)
	r.Notes.ApplyTo(&m.Notes)
	if r.MeasuredAt != nil {
		m.MeasuredAt = *r.MeasuredAt
	}
}
