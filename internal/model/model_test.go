package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestOptional_UnmarshalTracksPresence(t *testing.T) {
	var req UpdatePatientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"first_name":"Ada","email":null}`), &req))

	assert.True(t, req.FirstName.Set)
	assert.True(t, req.FirstName.Valid)
	assert.Equal(t, "Ada", req.FirstName.Value)

	assert.True(t, req.Email.Set)
	assert.False(t, req.Email.Valid)

	assert.False(t, req.LastName.Set)
	assert.Nil(t, req.Status)
}

func TestUpdatePatientRequest_ApplyToOnlyTouchesSuppliedFields(t *testing.T) {
	enrolled := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := &Patient{
		ID:             1,
		PatientCode:    "P-001",
		FirstName:      strPtr("Ada"),
		LastName:       strPtr("Lovelace"),
		Email:          strPtr("ada@example.com"),
		Gender:         GenderFemale,
		Status:         PatientStatusScreening,
		MedicalHistory: JSONMap{"asthma": true},
		EnrollmentDate: &enrolled,
	}

	var req UpdatePatientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"last_name":"King","email":null,"status":"enrolled"}`), &req))
	req.ApplyTo(p)

	assert.Equal(t, "Ada", *p.FirstName)
	assert.Equal(t, "King", *p.LastName)
	assert.Nil(t, p.Email)
	assert.Equal(t, PatientStatusEnrolled, p.Status)
	assert.Equal(t, GenderFemale, p.Gender)
	assert.Equal(t, JSONMap{"asthma": true}, p.MedicalHistory)
	assert.Equal(t, enrolled, *p.EnrollmentDate)
	assert.Equal(t, "P-001", p.PatientCode)
}

func TestUpdatePatientRequest_NullOnRequiredFieldIsIgnored(t *testing.T) {
	p := &Patient{Gender: GenderMale}

	var req UpdatePatientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"gender":null}`), &req))
	req.ApplyTo(p)

	assert.Equal(t, GenderMale, p.Gender)
}

func TestCreatePatientRequest_DefaultsDocuments(t *testing.T) {
	req := CreatePatientRequest{PatientCode: "P-1", Gender: GenderOther, Status: PatientStatusActive}
	p := req.ToPatient()

	assert.Equal(t, JSONMap{}, p.MedicalHistory)
	assert.Equal(t, JSONMap{}, p.BaselineData)
}

func TestJSONMap_ValueAndScan(t *testing.T) {
	v, err := JSONMap{"a": float64(1)}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	v, err = JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"b":"x"}`)))
	assert.Equal(t, JSONMap{"b": "x"}, m)

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	assert.Error(t, m.Scan(42))
}

func TestMeasurement_Kind(t *testing.T) {
	n := 98.6
	tests := []struct {
		name string
		m    Measurement
		want ValueKind
	}{
		{"none", Measurement{}, ValueKindNone},
		{"numeric", Measurement{ValueNumeric: &n}, ValueKindNumeric},
		{"text", Measurement{ValueText: strPtr("positive")}, ValueKindText},
		{"json", Measurement{ValueJSON: JSONMap{"systolic": 120}}, ValueKindJSON},
		{"numeric wins", Measurement{ValueNumeric: &n, ValueText: strPtr("x")}, ValueKindNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Kind())
		})
	}
}

func TestMeasurement_MarshalJSONIncludesKind(t *testing.T) {
	n := 72.0
	b, err := json.Marshal(Measurement{ID: 3, PatientID: 1, MetricName: "heart_rate", ValueNumeric: &n})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "numeric", out["value_kind"])
	assert.Equal(t, "heart_rate", out["metric_name"])
	assert.EqualValues(t, 3, out["id"])
	assert.Nil(t, out["visit_id"])
	assert.Contains(t, out, "updated_at")
}

func TestUpdateMeasurementRequest_ApplyTo(t *testing.T) {
	visitID := int64(4)
	m := &Measurement{MetricName: "weight", VisitID: &visitID, Unit: strPtr("kg")}

	var req UpdateMeasurementRequest
	require.NoError(t, json.Unmarshal([]byte(`{"visit_id":null,"value_text":"n/a"}`), &req))
	req.ApplyTo(m)

	assert.Nil(t, m.VisitID)
	assert.Equal(t, "n/a", *m.ValueText)
	assert.Equal(t, "weight", m.MetricName)
	assert.Equal(t, "kg", *m.Unit)
}
