package validator

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/trials-api/internal/model"
)

func newValidate() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

func TestRegister_OptionalFieldsValidateInnerValue(t *testing.T) {
	v := newValidate()

	var ok model.UpdatePatientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"email":"ada@example.com","phone":null}`), &ok))
	assert.NoError(t, v.Struct(&ok))

	var bad model.UpdatePatientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"email":"not-an-email"}`), &bad))
	err := v.Struct(&bad)
	require.Error(t, err)

	fields, handled := Translate(err)
	require.True(t, handled)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Field)
	assert.Equal(t, "invalid email format", fields[0].Message)
}

func TestRegister_OptionalZeroIsValidated(t *testing.T) {
	v := newValidate()

	var zero model.UpdateMeasurementRequest
	require.NoError(t, json.Unmarshal([]byte(`{"visit_id":0}`), &zero))
	err := v.Struct(&zero)
	require.Error(t, err)

	fields, handled := Translate(err)
	require.True(t, handled)
	require.Len(t, fields, 1)
	assert.Equal(t, "visit_id", fields[0].Field)
	assert.Equal(t, "value must be positive", fields[0].Message)

	var cleared model.UpdateMeasurementRequest
	require.NoError(t, json.Unmarshal([]byte(`{"visit_id":null,"unit":null}`), &cleared))
	assert.NoError(t, v.Struct(&cleared))

	var unset model.UpdateMeasurementRequest
	assert.NoError(t, v.Struct(&unset))
}

func TestRegister_EnumAndRequired(t *testing.T) {
	v := newValidate()

	req := model.CreatePatientRequest{Gender: "Robot", Status: model.PatientStatusActive}
	err := v.Struct(&req)
	require.Error(t, err)

	fields, handled := Translate(err)
	require.True(t, handled)

	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "field is required", byField["patient_code"])
	assert.Equal(t, "field is required", byField["birth_date"])
	assert.Contains(t, byField["gender"], "Male Female Other Unknown")
}

func TestTranslate_DecodeErrors(t *testing.T) {
	var req model.CreateVisitRequest
	err := json.Unmarshal([]byte(`{"visit_type": 5}`), &req)
	fields, handled := Translate(err)
	require.True(t, handled)
	assert.Equal(t, "visit_type", fields[0].Field)

	err = json.Unmarshal([]byte(`{"visit_date": "yesterday"}`), &req)
	_, handled = Translate(err)
	assert.True(t, handled)

	_, handled = Translate(assert.AnError)
	assert.False(t, handled)
}

func TestFieldErrors_Error(t *testing.T) {
	err := FieldErrors{{Field: "gender", Message: "field is required"}, {Field: "email", Message: "invalid email format"}}
	assert.Equal(t, "gender: field is required; email: invalid email format", err.Error())
}
