package validation

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

var (
	mobilePattern  = regexp.MustCompile(`^[6-9]\d{9}$`)
	pinCodePattern = regexp.MustCompile(`^\d{6}$`)
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// FieldErrors maps a field name to the first human-readable failure for it.
type FieldErrors map[string]string

// Add records msg for field unless an earlier failure is already bound to it.
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Err converts the failures into a typed validation error, or nil when empty.
func (f FieldErrors) Err(message string) error {
	if f.Empty() {
		return nil
	}
	return appErrors.Validation(message, map[string]string(f))
}

// messageTable overrides translated messages per field and tag.
type messageTable map[string]map[string]string

func (m messageTable) lookup(field, tag string) (string, bool) {
	tags, ok := m[field]
	if !ok {
		return "", false
	}
	if msg, ok := tags[tag]; ok {
		return msg, true
	}
	msg, ok := tags["*"]
	return msg, ok
}

// Engine wraps go-playground/validator with the wizard's custom rules and English messages.
type Engine struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewEngine registers custom tags, numeric coercion and English translations.
func NewEngine() *Engine {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pinCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("letters_spaces", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 {
			return true
		}
		return f.Float() == math.Trunc(f.Float())
	})
	v.RegisterCustomTypeFunc(coerceNumeric, NumericInput(""))

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(v, trans)

	return &Engine{validate: v, trans: trans}
}

// Validator exposes the underlying validator for reuse by other services.
func (e *Engine) Validator() *validator.Validate {
	return e.validate
}

// structInto validates s and adds one message per failing field into errs.
func (e *Engine) structInto(s interface{}, messages messageTable, errs FieldErrors) {
	err := e.validate.Struct(s)
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		errs.Add("_", err.Error())
		return
	}
	for _, fe := range ve {
		field := fe.Field()
		if msg, ok := messages.lookup(field, fe.Tag()); ok {
			errs.Add(field, msg)
			continue
		}
		errs.Add(field, fe.Translate(e.trans))
	}
}

// coerceNumeric hands validator the parsed number, or nil when the input is blank or not numeric.
func coerceNumeric(field reflect.Value) interface{} {
	in, ok := field.Interface().(NumericInput)
	if !ok {
		return nil
	}
	f, present, err := in.Float()
	if !present || err != nil {
		return nil
	}
	return f
}
