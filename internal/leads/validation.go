package leads

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fieldOrder fixes the order errors are reported in, matching the form.
var fieldOrder = []string{"name", "companyName", "email", "phone", "serviceType", "location", "message"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "leademail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	mustRegister(v, "leadphone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("leads: register %s validation: %v", tag, err))
	}
}

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidateSubmission checks every field of req and returns all problems
// found. Fields are compared after trimming, so call Normalize first when
// the trimmed values are what will be stored. The website honeypot is not
// validated here.
func ValidateSubmission(req *CreateSubmissionRequest) FieldErrors {
	trimmed := *req
	trimmed.Normalize()

	err := validate.Struct(&trimmed)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: "body", Message: "Invalid submission."}}
	}

	byField := make(map[string]FieldError, len(verrs))
	for _, fe := range verrs {
		byField[fe.Field()] = toFieldError(fe)
	}

	out := make(FieldErrors, 0, len(byField))
	for _, name := range fieldOrder {
		if fe, ok := byField[name]; ok {
			out = append(out, fe)
		}
	}
	return out
}

func toFieldError(fe validator.FieldError) FieldError {
	field := fe.Field()
	label := fieldLabels[field]
	if label == "" {
		label = field
	}

	switch fe.Tag() {
	case "required":
		return FieldError{Field: field, Message: label + " is required.", Missing: true}
	case "leademail":
		return FieldError{Field: field, Message: "Invalid email format."}
	case "leadphone":
		return FieldError{Field: field, Message: fmt.Sprintf("Invalid phone number format. Use at least %d digits.", MinPhoneDigits)}
	case "max":
		return FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())}
	default:
		return FieldError{Field: field, Message: label + " is invalid."}
	}
}

var fieldLabels = map[string]string{
	"name":        "Name",
	"companyName": "Company name",
	"email":       "Email",
	"phone":       "Phone",
	"serviceType": "Service type",
	"location":    "Location",
	"message":     "Message",
}
