package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps JSON field names to their validation messages.
type FieldErrors map[string][]string

// ValidationError satisfies httpx.DomainProblem structurally, so request
// DTO failures render as a 400 problem with a fields map in context.
type ValidationError struct {
	summary string
	fields  FieldErrors
}

func (e *ValidationError) Error() string { return e.summary }

func (e *ValidationError) ProblemCode() string    { return "ErrValidation" }
func (e *ValidationError) ProblemStatus() int     { return http.StatusBadRequest }
func (e *ValidationError) ProblemTitle() string   { return "Validation error" }
func (e *ValidationError) ProblemDetail() string  { return e.summary }
func (e *ValidationError) ProblemTypeURI() string { return "urn:problem:validation-error" }
func (e *ValidationError) ProblemContext() any    { return map[string]any{"fields": e.fields} }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return lowerFirst(fld.Name)
		}
		return name
	})
	return v
}

// ValidateStruct checks v against its `validate` tags. The summary names the
// first failing field, e.g. "invalid email, and 2 other errors".
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{summary: "validation failed", fields: FieldErrors{}}
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], messageFor(fe))
	}
	return &ValidationError{summary: summarize(verrs, fields), fields: fields}
}

func messageFor(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "numeric":
		return "must contain only digits"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return "must be at least " + param
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return "must be at most " + param
	case "len":
		if isString {
			return fmt.Sprintf("must be exactly %s characters", param)
		}
		return "must have length " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "eqfield":
		return "must match " + lowerFirst(param)
	case "nefield":
		return "must differ from " + lowerFirst(param)
	}
	return "is invalid"
}

// summarize follows struct field order. An invalid email gets the short
// "invalid email" phrasing clients already display.
func summarize(verrs validator.ValidationErrors, fields FieldErrors) string {
	others := len(verrs) - 1
	head := ""
	if msgs := fields["email"]; len(msgs) > 0 && msgs[0] == "must be a valid email" {
		head = "invalid email"
	} else {
		fe := verrs[0]
		head = fe.Field() + " " + messageFor(fe)
	}

	switch others {
	case 0:
		return head
	case 1:
		return head + ", and 1 other error"
	}
	return fmt.Sprintf("%s, and %d other errors", head, others)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
