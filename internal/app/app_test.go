package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/adapters/driven/config/file"
	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/services"
	"github.com/trakhound/trakhound-core/internal/logger"
)

func testConfig(t *testing.T) file.Config {
	t.Helper()
	cfg := file.Default()
	cfg.DataDir = t.TempDir()
	cfg.Drivers = []file.DriverConfig{
		{ID: "main", Type: file.DriverSQLite},
		{ID: "cache", Type: file.DriverMemory, Entities: []string{"String", "Number"},
			Buffer: &file.BufferConfig{Interval: file.Duration(10 * time.Millisecond)}},
	}
	return cfg
}

func TestNew_RoutesDeclaredTypes(t *testing.T) {
	e, err := New(testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, domain.EntityTypes(), e.Registry.Routes())

	obj, ok := e.Registry.Lookup(domain.EntityTypeObject)
	require.True(t, ok)
	assert.Equal(t, "main", obj.ID())

	str, ok := e.Registry.Lookup(domain.EntityTypeString)
	require.True(t, ok)
	assert.Equal(t, "cache-string-buffer", str.ID())

	assert.Len(t, e.MetricsSets(), 2)
	assert.NotNil(t, e.Entities)
	assert.NotNil(t, e.Query)
	assert.NotNil(t, e.Drivers)
}

func TestNew_InvalidRemote(t *testing.T) {
	cfg := testConfig(t)
	cfg.Drivers = append(cfg.Drivers, file.DriverConfig{ID: "edge", Type: file.DriverRemote, URL: "ftp://x"})

	_, err := New(cfg, logger.Nop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestEngine_BufferedPublishReachesStore(t *testing.T) {
	e, err := New(testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Start(ctx) }()

	s := domain.NewString(domain.ObjectUUID("main", "/m"), "on", "")
	resp := services.Publish(ctx, e.Registry, []domain.String{s})
	require.Len(t, resp.Results(), 1)
	assert.Equal(t, domain.PublishQueued, resp.Results()[0].Content.Operation)

	require.Eventually(t, func() bool {
		return len(services.Read[domain.String](ctx, e.Registry, []string{s.UUID}).Content()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e, err := New(testConfig(t), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}
