package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusBadRequest, KindBusinessRule.Status())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.Status())
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusConflict, KindConflict.Status())
	assert.Equal(t, http.StatusInternalServerError, KindExecution.Status())
}

func TestWrapKeepsIdentity(t *testing.T) {
	base := Execution("Trade execution failed. Please retry.")
	cause := errors.New("disk I/O error")

	wrapped := fmt.Errorf("execute: %w", Wrap(base, cause))

	assert.True(t, errors.Is(wrapped, base))
	assert.True(t, errors.Is(wrapped, cause))
	assert.False(t, errors.Is(wrapped, Execution("something else")))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindExecution, appErr.Kind)
	assert.Equal(t, "Trade execution failed. Please retry.: disk I/O error", appErr.Error())
}

func TestAsMissing(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}
