package utils

import (
	"testing"

	apperrors "ontology-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required,nefield=Source"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(connectRequest{Source: "a", Target: "b"}))

	err := ValidateStruct(connectRequest{Target: ""})
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "source is required", appErr.Details["source"])
	assert.Equal(t, "target is required", appErr.Details["target"])

	err = ValidateStruct(connectRequest{Source: "a", Target: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target must differ from source")
}
