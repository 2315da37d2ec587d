package validator

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/trials-api/internal/model"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors lets a list of field failures travel as an error.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

var messages = map[string]string{
	"required": "field is required",
	"email":    "invalid email format",
	"min":      "value is too short",
	"max":      "value is too long",
	"oneof":    "value is not one of the allowed values",
	"gt":       "value must be positive",
}

var once sync.Once

// Setup configures gin's binding engine once per process: error field names
// follow json tags and Optional patch fields validate as their inner value.
func Setup() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Register applies the project's conventions to a validator instance.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(optionalValue,
		model.Optional[string]{},
		model.Optional[int64]{},
		model.Optional[float64]{},
		model.Optional[time.Time]{},
		model.Optional[model.JSONMap]{},
	)
}

func optionalValue(field reflect.Value) interface{} {
	if o, ok := field.Interface().(interface{ Interface() interface{} }); ok {
		return o.Interface()
	}
	return nil
}

// Translate turns binding errors into per-field messages. The second return
// is false when err is not a validation or decoding failure.
func Translate(err error) ([]FieldError, bool) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, e := range verrs {
			msg, ok := messages[e.Tag()]
			if !ok {
				msg = e.Error()
			}
			if e.Param() != "" && (e.Tag() == "oneof" || e.Tag() == "max" || e.Tag() == "min") {
				msg = fmt.Sprintf("%s (%s)", msg, e.Param())
			}
			out = append(out, FieldError{Field: e.Field(), Message: msg})
		}
		return out, true
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return []FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}}, true
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return []FieldError{{Field: "body", Message: "malformed JSON"}}, true
	}

	var timeErr *time.ParseError
	if stderrors.As(err, &timeErr) {
		return []FieldError{{Field: "body", Message: fmt.Sprintf("invalid timestamp %q", timeErr.Value)}}, true
	}

	return nil, false
}
