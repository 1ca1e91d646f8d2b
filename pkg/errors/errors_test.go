package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesPredefinedByCode(t *testing.T) {
	err := Clone(ErrInvalidInterval, "slot 3 ends before it starts")

	assert.True(t, errors.Is(err, ErrInvalidInterval))
	assert.False(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Equal(t, "slot 3 ends before it starts", err.Error())
	assert.Equal(t, "interval end must not be before start", ErrInvalidInterval.Message)
}

func TestWrappedErrorSurvivesFmtWrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed"))

	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, errors.Is(err, cause))

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "failed: boom", appErr.Error())
}

func TestFromErrorNormalisesPlainErrors(t *testing.T) {
	appErr := FromError(errors.New("disk on fire"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}
