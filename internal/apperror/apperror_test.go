package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Status(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInternal, http.StatusInternalServerError},
		{CodeExternalService, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "msg").Status())
		})
	}
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("saving order: %w", Wrap(CodeExternalService, "store unavailable", cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeExternalService, appErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store unavailable: dial tcp: timeout", appErr.Error())
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("lookup: %w", NotFound("Order not found"))))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestExternal(t *testing.T) {
	cause := errors.New("broker unreachable")

	err := External(cause)

	assert.Equal(t, CodeExternalService, err.Code)
	assert.Equal(t, "External service error", err.Message)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("publish: %w", err)))
	assert.ErrorIs(t, err, cause)
}
