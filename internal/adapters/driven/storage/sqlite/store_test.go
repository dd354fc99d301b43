package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore("sqlite-test", t.TempDir(), logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore("main", dir, logger.Nop())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.Equal(t, "main", store.ID())
	assert.True(t, store.IsAvailable())
	assert.Equal(t, "ready", store.AvailabilityMessage())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore("main", dir, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore("main", dir, logger.Nop())
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestDriver_PublishAndRead(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	objects := NewDriver[domain.Object](store)

	obj := domain.NewObject("main", "/machines/mill", "", "", "")
	published := objects.Publish(ctx, []domain.Object{obj})
	require.True(t, published.IsSuccess())
	assert.Equal(t, domain.PublishCreated, published.Content()[0].Operation)

	again := objects.Publish(ctx, []domain.Object{obj})
	assert.Equal(t, domain.PublishUnchanged, again.Content()[0].Operation)

	resp := objects.Read(ctx, []string{obj.UUID, "missing"})
	require.Len(t, resp.Content(), 1)
	assert.Equal(t, obj, resp.Content()[0])
	assert.Equal(t, domain.ResultNotFound, resp.ByRequest("missing")[0].Type)
	assert.Equal(t, "sqlite-test", resp.Results()[0].Source)
}

func TestDriver_PublishChanged(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	strs := NewDriver[domain.String](store)
	obj := domain.ObjectUUID("main", "/mill/status")

	first := domain.NewString(obj, "ACTIVE", "")
	strs.Publish(ctx, []domain.String{first})

	second := domain.NewString(obj, "STOPPED", "")
	resp := strs.Publish(ctx, []domain.String{second})
	assert.Equal(t, domain.PublishChanged, resp.Content()[0].Operation)

	read := strs.Read(ctx, []string{first.UUID})
	require.Len(t, read.Content(), 1)
	assert.Equal(t, "STOPPED", read.Content()[0].Value)
}

func TestDriver_TypesAreIsolated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	obj := domain.ObjectUUID("main", "/mill/status")
	s := domain.NewString(obj, "x", "")

	NewDriver[domain.String](store).Publish(ctx, []domain.String{s})

	resp := NewDriver[domain.Number](store).Read(ctx, []string{s.UUID})
	assert.True(t, resp.IsNotFound())
}

func TestDriver_QueryByObject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	samples := NewDriver[domain.Observation](store)
	obj := domain.ObjectUUID("main", "/mill/temp")

	batch := []domain.Observation{
		domain.NewObservation(obj, "float", "40", 1, 1, 100, ""),
		domain.NewObservation(obj, "float", "41", 1, 2, 200, ""),
	}
	require.True(t, samples.Publish(ctx, batch).IsSuccess())

	resp := samples.QueryByObject(ctx, []string{obj, "empty-object"})
	assert.Len(t, resp.ByRequest(obj), 2)
	assert.Equal(t, domain.ResultEmpty, resp.ByRequest("empty-object")[0].Type)
	assert.True(t, resp.IsSuccess())
}

func TestDriver_DeleteAndEmpty(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	strs := NewDriver[domain.String](store)

	a := domain.NewString("o1", "a", "")
	a.Created = 100
	a.Hash = a.ComputeHash()
	b := domain.NewString("o2", "b", "")
	b.Created = 300
	require.True(t, strs.Publish(ctx, []domain.String{a, b}).IsSuccess())

	del := strs.Delete(ctx, []domain.EntityDeleteRequest{{Target: a.UUID}, {Target: "missing"}})
	assert.Equal(t, []bool{true}, del.Content())
	assert.Len(t, del.NotFound(), 1)

	kept := strs.Empty(ctx, []domain.EntityEmptyRequest{{EntityUUID: "o2", Before: 200}})
	assert.Equal(t, domain.ResultEmpty, kept.Results()[0].Type)

	emptied := strs.Empty(ctx, []domain.EntityEmptyRequest{{EntityUUID: "o2"}})
	assert.Equal(t, []bool{true}, emptied.Content())
	assert.True(t, strs.Read(ctx, []string{b.UUID}).IsNotFound())
}

func TestDriver_ClosedIsNotAvailable(t *testing.T) {
	store, err := NewStore("main", t.TempDir(), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	objects := NewDriver[domain.Object](store)
	resp := objects.Read(context.Background(), []string{"a", "b", "c"})
	require.Equal(t, 3, resp.Len())
	for _, r := range resp.Results() {
		assert.Equal(t, domain.ResultNotAvailable, r.Type)
	}

	pub := objects.Publish(context.Background(), []domain.Object{domain.NewObject("main", "/a", "", "", "")})
	assert.Equal(t, domain.ResultNotAvailable, pub.Results()[0].Type)
}

func TestChunks(t *testing.T) {
	keys := make([]string, maxParams*2+1)
	got := chunks(keys)
	require.Len(t, got, 3)
	assert.Len(t, got[2], 1)
	assert.Empty(t, chunks(nil))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
