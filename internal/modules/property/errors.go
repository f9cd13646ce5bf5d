package property

import (
	"fmt"
	"net/http"
)

// Error is a property-domain error that httpx.ToProblem renders as problem+json.
type Error struct {
	Code       string
	HTTPStatus int
	Detail     string
	Context    any

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.cause)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Code so wrapped copies compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func (e *Error) WithCause(err error) *Error {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

func (e *Error) WithContext(ctx any) *Error {
	cp := *e
	cp.Context = ctx
	return &cp
}

func (e *Error) ProblemCode() string    { return e.Code }
func (e *Error) ProblemStatus() int     { return e.HTTPStatus }
func (e *Error) ProblemTitle() string   { return "" }
func (e *Error) ProblemDetail() string  { return e.Detail }
func (e *Error) ProblemTypeURI() string { return "" }
func (e *Error) ProblemContext() any    { return e.Context }

var (
	ErrPropertyNotFound = &Error{
		Code:       "ErrPropertyNotFound",
		HTTPStatus: http.StatusNotFound,
		Detail:     "Property not found.",
	}
	ErrNotSeller = &Error{
		Code:       "ErrNotSeller",
		HTTPStatus: http.StatusForbidden,
		Detail:     "Enable seller mode to manage listings.",
	}
	ErrInvalidProperty = &Error{
		Code:       "ErrInvalidProperty",
		HTTPStatus: http.StatusBadRequest,
		Detail:     "Invalid property data.",
	}
	ErrInvalidFilter = &Error{
		Code:       "ErrInvalidFilter",
		HTTPStatus: http.StatusBadRequest,
		Detail:     "Invalid listing filter.",
	}
	ErrFacilityNotFound = &Error{
		Code:       "ErrFacilityNotFound",
		HTTPStatus: http.StatusNotFound,
		Detail:     "Facility not found.",
	}
	ErrFacilityAlreadyAdded = &Error{
		Code:       "ErrFacilityAlreadyAdded",
		HTTPStatus: http.StatusBadRequest,
		Detail:     "Facility already added to this property.",
	}
	ErrImageNotFound = &Error{
		Code:       "ErrImageNotFound",
		HTTPStatus: http.StatusNotFound,
		Detail:     "Image not found.",
	}
	ErrTooManyImages = &Error{
		Code:       "ErrTooManyImages",
		HTTPStatus: http.StatusBadRequest,
		Detail:     "A property cannot have more than 10 images.",
	}
	ErrAlreadyFavorite = &Error{
		Code:       "ErrAlreadyFavorite",
		HTTPStatus: http.StatusBadRequest,
		Detail:     "Property is already in favorites.",
	}
	ErrNotFavorite = &Error{
		Code:       "ErrNotFavorite",
		HTTPStatus: http.StatusNotFound,
		Detail:     "Property is not in favorites.",
	}
	ErrInternal = &Error{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Detail:     "An unexpected error occurred.",
	}
)
