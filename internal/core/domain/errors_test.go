package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrDriverUnavailable", ErrDriverUnavailable},
		{"ErrRouteNotConfigured", ErrRouteNotConfigured},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrInvalidPage", ErrInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("reading objects: %w", ErrDriverUnavailable)
	assert.ErrorIs(t, wrapped, ErrDriverUnavailable)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
}
