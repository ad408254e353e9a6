package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeInvalidState, "phase is already active")
	assert.True(t, HasCode(err, CodeInvalidState))
	assert.False(t, HasCode(err, CodeNotFound))

	wrapped := fmt.Errorf("handling command: %w", err)
	assert.True(t, HasCode(wrapped, CodeInvalidState))

	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("collaborator unreachable")))
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "duplicate assignment")))
}

func TestWithDetails(t *testing.T) {
	base := New(CodeInvariantViolation, "missing mandatory tags")
	err := base.WithDetails("Population", "Intervention")

	require.Equal(t, []string{"Population", "Intervention"}, DetailsOf(err))
	// The original is untouched.
	assert.Nil(t, base.Details)
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "loading extraction")
	assert.ErrorIs(t, err, cause)
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:           http.StatusNotFound,
		CodeUnauthorized:       http.StatusForbidden,
		CodeInvalidState:       http.StatusConflict,
		CodeConflict:           http.StatusConflict,
		CodeInvalidInput:       http.StatusUnprocessableEntity,
		CodeInvariantViolation: http.StatusUnprocessableEntity,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
