package validation

import (
	"encoding/json"
	"errors"
	"reflect"
)

var (
	numericType  = reflect.TypeOf(NumericInput(""))
	checkboxType = reflect.TypeOf(Checkbox(""))
)

// DecodeErrors turns a body decoding failure on a known field into a field-scoped
// message. ok is false when the failure cannot be attributed to one field, such as
// malformed JSON.
func DecodeErrors(err error) (FieldErrors, bool) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil, false
	}
	return FieldErrors{typeErr.Field: decodeMessage(typeErr.Type)}, true
}

func decodeMessage(t reflect.Type) string {
	if t == nil {
		return "Invalid value"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == numericType:
		return "Must be a number"
	case t == checkboxType || t.Kind() == reflect.Bool:
		return "Choose yes or no"
	case t.Kind() == reflect.Slice:
		return "Must be a list of choices"
	case t.Kind() == reflect.String:
		return "Must be text"
	default:
		return "Invalid value"
	}
}
