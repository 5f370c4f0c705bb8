package catalog

import (
	"bytes"
	"encoding/json"
)

// Override is a tagged optional for a user-edited listing field.
// An absent override means "fall back to the derived value"; a present
// override supersedes derivation even when its value is the zero value.
// JSON: absent marshals as null, present marshals as the value itself.
type Override[T any] struct {
	value   T
	present bool
}

// Set returns a present override holding v.
func Set[T any](v T) Override[T] {
	return Override[T]{value: v, present: true}
}

// Get returns the value and whether the override is present.
func (o Override[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsSet reports whether the override is present.
func (o Override[T]) IsSet() bool {
	return o.present
}

// Clear resets the override back to absent, not to the zero value.
func (o *Override[T]) Clear() {
	var zero T
	o.value = zero
	o.present = false
}

// Or returns the override value when present, otherwise fallback.
func (o Override[T]) Or(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

func (o Override[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Override[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Clear()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = v
	o.present = true
	return nil
}
