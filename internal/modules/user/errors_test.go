package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delordemm1/realestate-api/internal/httpx"
)

func TestDomainErrorMatchesSentinelByCode(t *testing.T) {
	cause := errors.New("no rows")
	err := fmt.Errorf("lookup: %w", ErrUserNotFound.WithCause(cause).WithDetail("User with this email does not exist."))

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrProfileNotFound)
	assert.Equal(t, "User not found.", ErrUserNotFound.ProblemDetail())
}

func TestDomainErrorRendersAsProblem(t *testing.T) {
	err := ErrCodeMismatch.WithDetail("Invalid code. 2 tries left.").WithContext(map[string]any{"triesLeft": 2})

	var p *httpx.Problem
	require.True(t, errors.As(httpx.ToProblem(context.Background(), err), &p))
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "ErrCodeMismatch", p.Code)
	assert.Equal(t, "Invalid code. 2 tries left.", p.Detail)
	assert.Equal(t, map[string]any{"triesLeft": 2}, p.Context)
}
