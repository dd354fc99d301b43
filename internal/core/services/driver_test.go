package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/logger"
)

func TestDriverService(t *testing.T) {
	buffered := &mockCommandDriver{mockDriver: newMockDriver[domain.String]("buffer")}
	r := NewRegistry(logger.Nop())
	require.NoError(t, r.Route(domain.EntityTypeString, buffered))
	require.NoError(t, r.Route(domain.EntityTypeObject, newMockDriver[domain.Object]("sqlite")))
	svc := NewDriverService(r, logger.Nop())

	statuses := svc.Drivers()
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].HasCommands)
	assert.True(t, statuses[0].HasMetrics)
	assert.False(t, statuses[1].HasMetrics)

	metrics := svc.BufferMetrics()
	require.Len(t, metrics, 1)
	assert.Equal(t, "buffer", metrics[0].DriverID)

	resp, err := svc.Run(context.Background(), "buffer", "flush", map[string]string{"limit": "10"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "flush", buffered.lastCommand)

	_, err = svc.Run(context.Background(), "sqlite", "flush", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
