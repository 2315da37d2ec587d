package model

import (
	"time"
)

type Gender string

const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderOther   Gender = "Other"
	GenderUnknown Gender = "Unknown"
)

type PatientStatus string

const (
	PatientStatusScreening PatientStatus = "screening"
	PatientStatusEnrolled  PatientStatus = "enrolled"
	PatientStatusActive    PatientStatus = "active"
	PatientStatusCompleted PatientStatus = "completed"
	PatientStatusWithdrawn PatientStatus = "withdrawn"
)

type Patient struct {
	ID             int64         `db:"id" json:"id"`
	PatientCode    string        `db:"patient_code" json:"patient_code"`
	FirstName      *string       `db:"first_name" json:"first_name"`
	LastName       *string       `db:"last_name" json:"last_name"`
	BirthDate      time.Time     `db:"birth_date" json:"birth_date"`
	Gender         Gender        `db:"gender" json:"gender"`
	Status         PatientStatus `db:"status" json:"status"`
	Email          *string       `db:"email" json:"email"`
	Phone          *string       `db:"phone" json:"phone"`
	MedicalHistory JSONMap       `db:"medical_history" json:"medical_history"`
	BaselineData   JSONMap       `db:"baseline_data" json:"baseline_data"`
	EnrollmentDate *time.Time    `db:"enrollment_date" json:"enrollment_date"`
	CompletionDate *time.Time    `db:"completion_date" json:"completion_date"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time    `db:"updated_at" json:"updated_at"`
}

// PatientSummary is the list representation of a patient.
type PatientSummary struct {
	ID          int64         `json:"id"`
	PatientCode string        `json:"patient_code"`
	FirstName   *string       `json:"first_name"`
	LastName    *string       `json:"last_name"`
	Gender      Gender        `json:"gender"`
	Status      PatientStatus `json:"status"`
}

func (p *Patient) Summary() PatientSummary {
	return PatientSummary{
		ID:          p.ID,
		PatientCode: p.PatientCode,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      p.Gender,
		Status:      p.Status,
	}
}

type CreatePatientRequest struct {
	PatientCode    string        `json:"patient_code" binding:"required,min=1,max=50"`
	FirstName      *string       `json:"first_name" binding:"omitempty,max=100"`
	LastName       *string       `json:"last_name" binding:"omitempty,max=100"`
	BirthDate      time.Time     `json:"birth_date" binding:"required"`
	Gender         Gender        `json:"gender" binding:"required,oneof=Male Female Other Unknown"`
	Status         PatientStatus `json:"status" binding:"required,oneof=screening enrolled active completed withdrawn"`
	Email          *string       `json:"email" binding:"omitempty,email,max=100"`
	Phone          *string       `json:"phone" binding:"omitempty,max=20"`
	MedicalHistory JSONMap       `json:"medical_history"`
	BaselineData   JSONMap       `json:"baseline_data"`
	EnrollmentDate *time.Time    `json:"enrollment_date"`
	CompletionDate *time.Time    `json:"completion_date"`
}

// ToPatient builds the row to insert; JSON documents default to {}.
func (r *CreatePatientRequest) ToPatient() *Patient {
	p := &Patient{
		PatientCode:    r.PatientCode,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		BirthDate:      r.BirthDate,
		Gender:         r.Gender,
		Status:         r.Status,
		Email:          r.Email,
		Phone:          r.Phone,
		MedicalHistory: r.MedicalHistory,
		BaselineData:   r.BaselineData,
		EnrollmentDate: r.EnrollmentDate,
		CompletionDate: r.CompletionDate,
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = JSONMap{}
	}
	if p.BaselineData == nil {
		p.BaselineData = JSONMap{}
	}
	return p
}

// UpdatePatientRequest is a patch. Required attributes are pointers (null or
// absent leaves them alone); nullable attributes are Optional so that an
// explicit null clears them. patient_code is not updatable.
type UpdatePatientRequest struct {
	FirstName      Optional[string]    `json:"first_name" binding:"omitempty,max=100"`
	LastName       Optional[string]    `json:"last_name" binding:"omitempty,max=100"`
	BirthDate      *time.Time          `json:"birth_date"`
	Gender         *Gender             `json:"gender" binding:"omitempty,oneof=Male Female Other Unknown"`
	Status         *PatientStatus      `json:"status" binding:"omitempty,oneof=screening enrolled active completed withdrawn"`
	Email          Optional[string]    `json:"email" binding:"omitempty,email,max=100"`
	Phone          Optional[string]    `json:"phone" binding:"omitempty,max=20"`
	MedicalHistory Optional[JSONMap]   `json:"medical_history"`
	BaselineData   Optional[JSONMap]   `json:"baseline_data"`
	EnrollmentDate Optional[time.Time] `json:"enrollment_date"`
	CompletionDate Optional[time.Time] `json:"completion_date"`
}

func (r *UpdatePatientRequest) ApplyTo(p *Patient) {
	r.FirstName.ApplyTo(&p.FirstName)
	r.LastName.ApplyTo(&p.LastName)
	if r.BirthDate != nil {
		p.BirthDate = *r.BirthDate
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	r.Email.ApplyTo(&p.Email)
	r.Phone.ApplyTo(&p.Phone)
	if r.MedicalHistory.Set {
		p.MedicalHistory = r.MedicalHistory.Value
	}
	if r.BaselineData.Set {
		p.BaselineData = r.BaselineData.Value
	}
	r.EnrollmentDate.ApplyTo(&p.EnrollmentDate)
	r.CompletionDate.ApplyTo(&p.CompletionDate)
}

type UpdatePatientStatusRequest struct {
	Status PatientStatus `json:"status" form:"status" binding:"required,oneof=screening enrolled active completed withdrawn"`
}
