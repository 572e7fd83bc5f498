// SPDX-License-Identifier: GPL-3.0-or-later

package scenario

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/rbmk-project/ooniqa/measurement"
)

// Expectations maps test keys fields to their expected JSON value,
// which must be nil, a bool, a string, or a number.
type Expectations map[string]any

// Mismatch describes a test keys field not matching its expectation.
type Mismatch struct {
	// Field is the test keys field.
	Field string

	// Want is the expected value.
	Want any

	// Got is the actual value.
	Got any

	// Missing indicates that the field was not in the test keys.
	Missing bool
}

// String implements [fmt.Stringer].
func (m Mismatch) String() string {
	if m.Missing {
		return fmt.Sprintf("%s: missing (want %s)", m.Field, formatValue(m.Want))
	}
	return fmt.Sprintf("%s: got %s, want %s", m.Field, formatValue(m.Got), formatValue(m.Want))
}

// formatValue formats a JSON value for humans.
func formatValue(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

// Check compares the test keys of a validated measurement with the
// expectations for the given probe variant, returning the mismatches
// sorted by field name. An empty result means the scenario passed.
func (s *Scenario) Check(m *measurement.Measurement, variant string) []Mismatch {
	expect := s.ExpectFor(variant)
	fields := make([]string, 0, len(expect))
	for field := range expect {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var out []Mismatch
	for _, field := range fields {
		want := expect[field]
		got, found := m.Lookup(field)
		switch {
		case !found:
			out = append(out, Mismatch{Field: field, Want: want, Missing: true})
		case !Equal(want, got):
			out = append(out, Mismatch{Field: field, Want: want, Got: got})
		}
	}
	return out
}

// Equal returns whether got, a value decoded from JSON, is equal to
// want. Numbers compare by numeric value regardless of their type.
func Equal(want, got any) bool {
	wantNum, wantIsNum := toFloat(want)
	gotNum, gotIsNum := toFloat(got)
	if wantIsNum || gotIsNum {
		return wantIsNum && gotIsNum && wantNum == gotNum
	}
	return reflect.DeepEqual(want, got)
}

// isLiteral returns whether value is a supported expectation.
func isLiteral(value any) bool {
	if _, ok := toFloat(value); ok {
		return true
	}
	switch value.(type) {
	case nil, bool, string:
		return true
	default:
		return false
	}
}

// toFloat converts numeric values to float64.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
