package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   string
	}{
		{"node not found", NewNodeNotFound("order"), http.StatusNotFound, CodeNodeNotFound},
		{"edge not found", NewEdgeNotFound("a-to-b"), http.StatusNotFound, CodeEdgeNotFound},
		{"duplicate edge", NewDuplicateEdge("a", "b"), http.StatusConflict, CodeDuplicateEdge},
		{"invalid request", NewInvalidRequest("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{"missing role", NewMissingRole("editor"), http.StatusForbidden, CodeMissingRole},
		{"rate limit", NewRateLimitError(10, "minute"), http.StatusTooManyRequests, ""},
		{"database", NewDatabaseError("scan", errors.New("boom")), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}

	assert.Equal(t, "node order not found", NewNodeNotFound("order").Message)
	assert.Equal(t, "nodes a and b are already connected", NewDuplicateEdge("a", "b").Message)
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, TypeForStatus(http.StatusNotFound))
	assert.Equal(t, ErrorTypeRateLimit, TypeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, ErrorTypeValidation, TypeForStatus(http.StatusMethodNotAllowed))
	assert.Equal(t, ErrorTypeInternal, TypeForStatus(http.StatusInternalServerError))
	assert.Equal(t, ErrorTypeInternal, TypeForStatus(http.StatusTeapot))
}

func TestWrappedAppError(t *testing.T) {
	err := fmt.Errorf("get node: %w", NewNodeNotFound("ghost"))

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, CodeNodeNotFound, appErr.Code)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Nil(t, GetAppError(errors.New("plain")))

	cause := errors.New("throttled")
	assert.ErrorIs(t, NewDatabaseError("put", cause), cause)
}
