// Package httpx renders errors as RFC 9457 problem documents.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
)

// Problem is a problem+json body with three extensions: code (stable
// business code such as ErrCodeMismatch), context (extra payload such as
// validation fields or triesLeft) and requestId (from chi's RequestID).
type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   []*huma.ErrorDetail `json:"errors,omitempty"`

	Code      string `json:"code,omitempty"`
	Context   any    `json:"context,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (p *Problem) Error() string {
	switch {
	case p.Detail != "":
		return p.Detail
	case p.Title != "":
		return p.Title
	}
	return http.StatusText(p.GetStatus())
}

// GetStatus implements huma.StatusError.
func (p *Problem) GetStatus() int {
	if p.Status == 0 {
		return http.StatusInternalServerError
	}
	return p.Status
}

// ContentType implements huma.ContentTypeFilter.
func (p *Problem) ContentType(ct string) string {
	switch ct {
	case "application/json":
		return "application/problem+json"
	case "application/cbor":
		return "application/problem+cbor"
	}
	return ct
}

// DomainProblem is satisfied by the domain error types of every module, so
// ToProblem never has to know them.
type DomainProblem interface {
	ProblemCode() string
	ProblemStatus() int
	ProblemTitle() string
	ProblemDetail() string
	ProblemTypeURI() string
	ProblemContext() any
}

// ToProblem converts err for a huma handler return. Problems and other
// huma.StatusError values pass through, domain errors are formatted, and
// anything else becomes a generic 500 that does not leak err.
func ToProblem(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(huma.StatusError); ok {
		return err
	}

	var dp DomainProblem
	if !errors.As(err, &dp) {
		return InternalProblem(ctx, "")
	}

	p := newProblem(ctx, dp.ProblemCode(), dp.ProblemStatus(), dp.ProblemDetail())
	if title := dp.ProblemTitle(); title != "" {
		p.Title = title
	}
	if uri := dp.ProblemTypeURI(); uri != "" {
		p.Type = uri
	}
	p.Context = dp.ProblemContext()
	return p
}

// ValidationProblem builds the 400 returned for invalid request bodies.
func ValidationProblem(ctx context.Context, summary string, fields map[string][]string) *Problem {
	if summary == "" {
		summary = "Validation error"
	}
	p := newProblem(ctx, "ErrValidation", http.StatusBadRequest, summary)
	p.Type = "urn:problem:validation-error"
	p.Title = "Validation error"
	p.Context = map[string]any{"fields": fields}
	return p
}

// UnauthorizedProblem builds the 401 returned by the auth middleware.
func UnauthorizedProblem(ctx context.Context, detail string) *Problem {
	p := newProblem(ctx, "ErrUnauthorized", http.StatusUnauthorized, detail)
	p.Type = "urn:problem:auth/err-unauthorized"
	return p
}

// InternalProblem builds a 500. An empty detail gets a safe generic message.
func InternalProblem(ctx context.Context, detail string) *Problem {
	if detail == "" {
		detail = "Something went wrong. Please try again later."
	}
	p := newProblem(ctx, "ErrInternal", http.StatusInternalServerError, detail)
	p.Type = "urn:problem:internal"
	return p
}

// Write sends p from a huma middleware, where returning an error is not possible.
func Write(ctx huma.Context, p *Problem) {
	ctx.SetHeader("Content-Type", "application/problem+json")
	ctx.SetStatus(p.GetStatus())
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(p)
}

func newProblem(ctx context.Context, code string, status int, detail string) *Problem {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if detail == "" {
		detail = defaultDetails[status]
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &Problem{
		Type:      "urn:problem:" + toKebab(code),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Code:      code,
		RequestID: middleware.GetReqID(ctx),
	}
}

var defaultDetails = map[int]string{
	http.StatusBadRequest:      "Bad request",
	http.StatusUnauthorized:    "Unauthorized",
	http.StatusForbidden:       "Forbidden",
	http.StatusNotFound:        "Not found",
	http.StatusConflict:        "Conflict",
	http.StatusTooManyRequests: "Too many requests",
}

// toKebab turns ErrCodeMismatch into err-code-mismatch and USER_NOT_FOUND
// into user-not-found.
func toKebab(s string) string {
	var b strings.Builder
	hyphen := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
			b.WriteByte('-')
		}
	}
	lowerBefore := false
	for _, r := range s {
		if r == '_' || r == ' ' || r == '-' {
			hyphen()
			lowerBefore = false
			continue
		}
		if unicode.IsUpper(r) && lowerBefore {
			hyphen()
		}
		b.WriteRune(unicode.ToLower(r))
		lowerBefore = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return strings.TrimSuffix(b.String(), "-")
}
