package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Clone(ErrValidation, "name is required"))
	appErr := FromError(err)
	require.Equal(t, ErrValidation.Code, appErr.Code)
	require.Equal(t, "name is required", appErr.Message)
	require.True(t, HasCode(err, ErrValidation.Code))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("disk on fire"))
	require.Equal(t, http.StatusInternalServerError, appErr.Status)
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.EqualError(t, appErr, "internal server error: disk on fire")
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "pledge Carol not found")
	require.Equal(t, "resource not found", ErrNotFound.Message)
	require.Equal(t, "pledge Carol not found", clone.Message)
	require.False(t, HasCode(nil, ErrNotFound.Code))
}
