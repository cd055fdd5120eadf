// Package possible implements the three-state wire field used across gateway
// payloads: a field may be absent from the JSON document, present with an
// explicit null, or present with a value. Merge logic distinguishes all three
// states, so collapsing absent and null into one nullable type is not an
// option here.
package possible

import "encoding/json"

// Value is a tri-state field. The zero Value is absent, which makes it safe
// to embed directly in payload structs: fields never seen by UnmarshalJSON
// stay absent.
type Value[T any] struct {
	present bool
	null    bool
	value   T
}

// Of returns a Value carrying v.
func Of[T any](v T) Value[T] {
	return Value[T]{present: true, value: v}
}

// Null returns a Value that is present but explicitly null.
func Null[T any]() Value[T] {
	return Value[T]{present: true, null: true}
}

// Absent returns the absent Value. Equivalent to the zero value; provided for
// call sites where the intent should read explicitly.
func Absent[T any]() Value[T] {
	return Value[T]{}
}

// IsAbsent reports whether the field was not sent at all.
func (v Value[T]) IsAbsent() bool {
	return !v.present
}

// IsNull reports whether the field was sent as an explicit null.
func (v Value[T]) IsNull() bool {
	return v.present && v.null
}

// Get returns the carried value and whether one is carried. Absent and null
// both report false.
func (v Value[T]) Get() (T, bool) {
	if !v.present || v.null {
		var zero T
		return zero, false
	}

	return v.value, true
}

// OrElse returns the carried value, or fallback when the field is absent or
// null.
func (v Value[T]) OrElse(fallback T) T {
	if got, ok := v.Get(); ok {
		return got
	}

	return fallback
}

// OrKeep returns v unless it is absent, in which case old is kept. This is
// the update-merge rule for tri-state fields: absent keeps the prior state,
// null and value both overwrite it.
func (v Value[T]) OrKeep(old Value[T]) Value[T] {
	if v.IsAbsent() {
		return old
	}

	return v
}

// Ptr returns a pointer to the carried value, or nil for absent/null. Useful
// when handing snapshots to callers that expect nullable semantics.
func (v Value[T]) Ptr() *T {
	if got, ok := v.Get(); ok {
		return &got
	}

	return nil
}

// IsZero reports absence so that `json:",omitzero"` elides the key entirely,
// preserving the absent state across a marshal round trip.
func (v Value[T]) IsZero() bool {
	return !v.present
}

// UnmarshalJSON records present-null versus present-value. Absence is handled
// by encoding/json never calling this method.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.present = true
	if string(data) == "null" {
		v.null = true
		var zero T
		v.value = zero
		return nil
	}

	v.null = false
	return json.Unmarshal(data, &v.value)
}

// MarshalJSON writes null for the null state and the carried value otherwise.
// Absent fields must be tagged omitzero so this is never reached for them.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.null || !v.present {
		return []byte("null"), nil
	}

	return json.Marshal(v.value)
}
