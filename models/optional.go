package models

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Optional is a field that is either absent, explicitly null, or holds a value.
// Absent keys leave Set false when decoded from JSON.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional with no value
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}
