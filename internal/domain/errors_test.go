package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindClassification(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "schema_error", ErrorKind(ErrSchema))
	assert.Equal(t, "insufficient_data", ErrorKind(fmt.Errorf("product 3: %w", ErrInsufficientData)))
	assert.Equal(t, "model_not_found", ErrorKind(ErrModelNotFound))
	assert.Equal(t, "validation_error", ErrorKind(ErrValidation))
	assert.Equal(t, "persistence_error", ErrorKind(ErrPersistence))
	assert.Equal(t, "internal_error", ErrorKind(errors.New("boom")))
}
