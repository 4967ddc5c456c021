package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/sseplex/errors"
)

// FieldError is one failed rule, keyed by the config path of the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors from struct tags and from checks that
// tags cannot express.
type Validator struct {
	errs []FieldError
}

func New() *Validator {
	return &Validator{}
}

// Validate checks the `validate` tags of s.
func Validate(s any) error {
	return New().Struct(s).Err()
}

// Struct records every failing `validate` tag of s.
func (v *Validator) Struct(s any) *Validator {
	err := tags().Struct(s)
	if err == nil {
		return v
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.add("", err.Error())
		return v
	}
	for _, e := range verrs {
		v.add(fieldPath(e.Namespace()), describe(e))
	}
	return v
}

// Check records message for field unless ok holds.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.add(field, message)
	}
	return v
}

// Errors returns the recorded field errors.
func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Err returns nil, or an INVALID_INPUT AppError listing every field error.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.errs)
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

var (
	tagValidator *validator.Validate
	tagOnce      sync.Once
)

// tags reports field names as their mapstructure keys.
func tags() *validator.Validate {
	tagOnce.Do(func() {
		tagValidator = validator.New(validator.WithRequiredStructEnabled())
		tagValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return tagValidator
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

var tagMessages = map[string]string{
	"required":      "is required",
	"min":           "must be at least %s",
	"max":           "must be at most %s",
	"gt":            "must be greater than %s",
	"gte":           "must be greater than or equal to %s",
	"lte":           "must be less than or equal to %s",
	"oneof":         "must be one of: %s",
	"hostname_port": "must be a host:port address",
	"startswith":    "must start with %s",
}

func describe(e validator.FieldError) string {
	msg, ok := tagMessages[e.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return strings.Replace(msg, "%s", e.Param(), 1)
	}
	return msg
}
