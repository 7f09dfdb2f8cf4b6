package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/order-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFailure_TagsDriverErrors(t *testing.T) {
	cause := errors.New("dial tcp 10.0.3.7:5432: connection refused")

	err := StoreFailure(fmt.Errorf("failed to upsert document abc: %w", cause))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExternalService, appErr.Code)
	assert.Equal(t, "External service error", appErr.Message)
	assert.ErrorIs(t, err, cause)
}

func TestStoreFailure_KeepsSentinels(t *testing.T) {
	for _, sentinel := range []error{ErrNotFound, ErrConflict, ErrInvalidToken} {
		err := StoreFailure(fmt.Errorf("failed to update document abc: %w", sentinel))

		assert.ErrorIs(t, err, sentinel)
		_, tagged := apperror.As(err)
		assert.False(t, tagged, "%v should not be tagged", sentinel)
	}
}
