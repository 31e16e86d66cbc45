package authtree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Value is what a node writes into shared state for a projected attribute:
// either a single string or a sequence of strings.
type Value struct {
	values []string
	multi  bool
}

// Scalar returns a single-string Value.
func Scalar(s string) Value {
	return Value{values: []string{s}}
}

// Sequence returns a multi-string Value. The input slice is copied.
func Sequence(values ...string) Value {
	cp := make([]string, len(values))
	copy(cp, values)
	return Value{values: cp, multi: true}
}

// IsZero reports whether the Value holds nothing.
func (v Value) IsZero() bool {
	return len(v.values) == 0
}

// IsScalar reports whether the Value is a single string.
func (v Value) IsScalar() bool {
	return !v.multi && len(v.values) == 1
}

// Scalar returns the string for a scalar Value, or "" for a sequence.
func (v Value) Scalar() string {
	if !v.IsScalar() {
		return ""
	}
	return v.values[0]
}

// Strings returns a copy of every string held, in stored order.
func (v Value) Strings() []string {
	cp := make([]string, len(v.values))
	copy(cp, v.values)
	return cp
}

// Len returns the number of strings held.
func (v Value) Len() int {
	return len(v.values)
}

// Interface returns the plain Go form: string for a scalar, []string otherwise.
func (v Value) Interface() interface{} {
	if v.IsScalar() {
		return v.values[0]
	}
	return v.Strings()
}

func (v Value) String() string {
	if v.IsScalar() {
		return v.values[0]
	}
	return "[" + strings.Join(v.values, ", ") + "]"
}

// MarshalJSON encodes a scalar as a JSON string and a sequence as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsScalar() {
		return json.Marshal(v.values[0])
	}
	if v.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.values)
}

// UnmarshalJSON accepts a JSON string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Scalar(s)
		return nil
	}

	var seq []string
	if err := json.Unmarshal(data, &seq); err != nil {
		return fmt.Errorf("value must be a string or an array of strings: %w", err)
	}
	*v = Sequence(seq...)
	return nil
}

// Equal reports whether two Values have the same shape and strings.
func (v Value) Equal(other Value) bool {
	if v.multi != other.multi || len(v.values) != len(other.values) {
		return false
	}
	for i := range v.values {
		if v.values[i] != other.values[i] {
			return false
		}
	}
	return true
}
