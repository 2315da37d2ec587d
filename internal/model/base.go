package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap represents a generic JSON object stored in a JSONB column.
type JSONMap map[string]interface{}

// Value encodes the map as a JSON string; lib/pq would send []byte as bytea.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}

	out := JSONMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Optional is a patch field that records whether the key was present in the
// request body and whether it was an explicit null.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some returns a supplied, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a supplied Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Valid = false
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr returns a pointer to a copy of the value, or nil for null/unset.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// ApplyTo overwrites *dst only when the field was present in the body.
func (o Optional[T]) ApplyTo(dst **T) {
	if o.Set {
		*dst = o.Ptr()
	}
}

// Interface returns the value for validation, nil when unset or null. The
// value comes back as a pointer so omitempty still checks a supplied zero.
func (o Optional[T]) Interface() interface{} {
	if !o.Valid {
		return nil
	}
	return o.Ptr()
}
