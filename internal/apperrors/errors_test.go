package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	err := NotFound("REPORT_NOT_FOUND", "Report not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Report not found", err.Error())
}

func TestUpstreamUnwrapsCause(t *testing.T) {
	cause := errors.New("model offline")
	err := Upstream("ANALYSIS_ERROR", "Analysis failed", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Analysis failed: model offline", err.Error())
}

func TestCodeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("creating brief: %w", Conflict("BRIEF_EXISTS", "Policy brief already exists for this report"))
	assert.Equal(t, "BRIEF_EXISTS", CodeOf(err, "INTERNAL"))
	assert.Equal(t, "INTERNAL", CodeOf(errors.New("plain"), "INTERNAL"))
}

func TestValidationCode(t *testing.T) {
	err := Validation("No parameters provided")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "INVALID_PARAMETERS", CodeOf(err, ""))
}
