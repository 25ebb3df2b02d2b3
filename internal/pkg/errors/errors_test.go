package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WithDetailsDoesNotMutateCatalog(t *testing.T) {
	withDetails := ErrSessionNotFound.WithDetails(map[string]interface{}{"session_id": "abc"})

	assert.Equal(t, "abc", withDetails.Details["session_id"])
	assert.Empty(t, ErrSessionNotFound.Details)
	assert.Equal(t, http.StatusNotFound, withDetails.StatusCode)
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("route: %w", ErrNoRoute.WithMessage("nothing between A and B"))

	assert.True(t, stderrors.Is(wrapped, ErrNoRoute))
	assert.False(t, stderrors.Is(wrapped, ErrDirectionsFailed))
	assert.Equal(t, "NO_ROUTE: nothing between A and B", stderrors.Unwrap(wrapped).Error())
}
