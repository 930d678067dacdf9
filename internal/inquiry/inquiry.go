// Package inquiry validates prospective-student inquiries and forwards them
// to the school contact topic.
package inquiry

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Inquiry is the body of POST /inquiries.
type Inquiry struct {
	SchoolID        string `json:"schoolId" validate:"required"`
	SchoolName      string `json:"schoolName"`
	Name            string `json:"name" validate:"min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"usphone"`
	Message         string `json:"message,omitempty" validate:"max=1000"`
	ProgramInterest string `json:"programInterest" validate:"oneof=private_pilot commercial_pilot multi_engine instrument cfi other"`
	TourRequest     bool   `json:"tourRequest"`
}

var usPhone = regexp.MustCompile(`^(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("usphone", func(fl validator.FieldLevel) bool {
		return usPhone.MatchString(fl.Field().String())
	})
	return v
}

// FieldErrors maps a JSON field name to the rule it failed.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, rule := range e {
		parts = append(parts, field+": "+rule)
	}
	return "invalid inquiry: " + strings.Join(parts, ", ")
}

// Validate returns FieldErrors when any field breaks its rule.
func Validate(in Inquiry) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
