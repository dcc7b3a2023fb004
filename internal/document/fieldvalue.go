package document

import (
	"encoding/json"
	"fmt"
)

// FieldValue is a tagged variant: either a single string or a list of
// strings. Multi-match detectors keep all distinct matches as a list;
// single-match fields collapse to a scalar.
type FieldValue struct {
	list   []string
	scalar string
	isList bool
}

// Scalar builds a single-valued FieldValue.
func Scalar(s string) FieldValue {
	return FieldValue{scalar: s}
}

// List builds a multi-valued FieldValue. A one-element list stays a list;
// collapsing is the caller's decision, not the type's.
func List(values []string) FieldValue {
	return FieldValue{list: values, isList: true}
}

// IsList reports whether the value holds multiple matches.
func (v FieldValue) IsList() bool { return v.isList }

// String returns the scalar value, or the empty string for lists.
func (v FieldValue) String() string {
	if v.isList {
		return ""
	}
	return v.scalar
}

// Values returns all values regardless of shape.
func (v FieldValue) Values() []string {
	if v.isList {
		return v.list
	}
	return []string{v.scalar}
}

// First returns the scalar value, or the first list element.
// Used for title coercion where only one value makes sense.
func (v FieldValue) First() string {
	if v.isList {
		if len(v.list) == 0 {
			return ""
		}
		return v.list[0]
	}
	return v.scalar
}

// Equal reports content equality between two field values.
func (v FieldValue) Equal(o FieldValue) bool {
	if v.isList != o.isList {
		return false
	}
	if !v.isList {
		return v.scalar == o.scalar
	}
	if len(v.list) != len(o.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes scalars as JSON strings and lists as JSON arrays.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts a string, an array of strings, or any other JSON
// value coerced to its string form. Round-trips the MarshalJSON output.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Scalar(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = List(list)
		return nil
	}
	// Mixed arrays and non-string primitives get coerced, never rejected.
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Coerce(raw)
	return nil
}

// Coerce converts an arbitrary decoded JSON value into a FieldValue using
// deterministic rules: strings stay strings, arrays become string lists,
// everything else is formatted via the JSON encoder.
func Coerce(raw any) FieldValue {
	switch t := raw.(type) {
	case string:
		return Scalar(t)
	case []string:
		return List(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, coerceString(e))
		}
		return List(out)
	default:
		return Scalar(coerceString(raw))
	}
}

func coerceString(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Sprintf("%v", raw)
		}
		return string(b)
	}
}
