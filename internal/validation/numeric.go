package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// NumericInput holds a number as the user typed it. Forms send text, JSON clients may
// send either a number or a string; both are coerced before range validation.
type NumericInput string

// NumericFrom formats a stored number back into input form.
func NumericFrom(f float64) NumericInput {
	return NumericInput(strconv.FormatFloat(f, 'f', -1, 64))
}

// UnmarshalJSON accepts 15, "15" and null.
func (n *NumericInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericInput(s)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(*n)}
		}
		*n = NumericInput(num.String())
	}
	return nil
}

// UnmarshalParam lets gin's form binding fill the value from a form field.
func (n *NumericInput) UnmarshalParam(param string) error {
	*n = NumericInput(param)
	return nil
}

// Blank reports whether nothing was entered.
func (n NumericInput) Blank() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Float parses the input. present is false for blank input.
func (n NumericInput) Float() (value float64, present bool, err error) {
	raw := strings.TrimSpace(string(n))
	if raw == "" {
		return 0, false, nil
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, true, fmt.Errorf("not a number: %q", raw)
	}
	return value, true, nil
}
