package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Checkbox holds a yes/no answer as submitted. HTML checkboxes post "on" when ticked
// and nothing otherwise; JSON clients send booleans or strings.
type Checkbox string

// CheckboxFrom formats a stored answer back into input form.
func CheckboxFrom(checked bool) Checkbox {
	if checked {
		return "true"
	}
	return "false"
}

// UnmarshalJSON accepts true, false, null, strings and 0/1.
func (c *Checkbox) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*c = Checkbox(data)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Checkbox(s)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(*c)}
		}
		*c = Checkbox(num.String())
	}
	return nil
}

// UnmarshalParam lets gin's form binding fill the value from a form field.
func (c *Checkbox) UnmarshalParam(param string) error {
	*c = Checkbox(param)
	return nil
}

// Checked interprets the answer. Blank means unticked.
func (c Checkbox) Checked() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "", "false", "off", "0", "no", "n":
		return false, nil
	case "true", "on", "1", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("not a yes/no answer: %q", string(c))
	}
}
