package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/logger"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open("badger-test", InMemoryConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("kv", Config{}, logger.Nop())
	assert.Error(t, err)
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.SyncWrites = false

	store, err := Open("kv", cfg, logger.Nop())
	require.NoError(t, err)
	obj := domain.NewObject("main", "/a", "", "", "")
	require.True(t, NewDriver[domain.Object](store).Publish(context.Background(), []domain.Object{obj}).IsSuccess())
	require.NoError(t, store.Close())

	reopened, err := Open("kv", cfg, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	resp := NewDriver[domain.Object](reopened).Read(context.Background(), []string{obj.UUID})
	require.Len(t, resp.Content(), 1)
	assert.Equal(t, obj.Path, resp.Content()[0].Path)
}

func TestDriver_PublishAndRead(t *testing.T) {
	store := openInMemory(t)
	ctx := context.Background()
	strs := NewDriver[domain.String](store)
	obj := domain.ObjectUUID("main", "/mill/status")

	first := domain.NewString(obj, "ACTIVE", "")
	assert.Equal(t, domain.PublishCreated, strs.Publish(ctx, []domain.String{first}).Content()[0].Operation)
	assert.Equal(t, domain.PublishUnchanged, strs.Publish(ctx, []domain.String{first}).Content()[0].Operation)
	assert.Equal(t, domain.PublishChanged,
		strs.Publish(ctx, []domain.String{domain.NewString(obj, "STOPPED", "")}).Content()[0].Operation)

	resp := strs.Read(ctx, []string{first.UUID, "missing"})
	require.Len(t, resp.Content(), 1)
	assert.Equal(t, "STOPPED", resp.Content()[0].Value)
	assert.Equal(t, domain.ResultNotFound, resp.ByRequest("missing")[0].Type)
	assert.Equal(t, "badger-test", resp.Results()[0].Source)
}

func TestDriver_QueryByObject_FollowsOwnerChange(t *testing.T) {
	store := openInMemory(t)
	ctx := context.Background()
	objects := NewDriver[domain.Object](store)

	child := domain.Object{UUID: "child", Path: "/p1/child", ParentUUID: "p1"}
	child.Hash = child.ComputeHash()
	objects.Publish(ctx, []domain.Object{child})

	moved := child
	moved.ParentUUID = "p2"
	moved.Hash = moved.ComputeHash()
	objects.Publish(ctx, []domain.Object{moved})

	resp := objects.QueryByObject(ctx, []string{"p1", "p2"})
	assert.Equal(t, domain.ResultEmpty, resp.ByRequest("p1")[0].Type)
	require.Len(t, resp.ByRequest("p2"), 1)
	assert.Equal(t, "child", resp.ByRequest("p2")[0].Content.UUID)
}

func TestDriver_QueryByObject_OldestFirst(t *testing.T) {
	store := openInMemory(t)
	ctx := context.Background()
	samples := NewDriver[domain.Observation](store)
	obj := domain.ObjectUUID("main", "/mill/temp")

	late := domain.NewObservation(obj, "float", "41", 1, 2, 200, "")
	late.Created = 20
	early := domain.NewObservation(obj, "float", "40", 1, 1, 100, "")
	early.Created = 10
	samples.Publish(ctx, []domain.Observation{late, early})

	got := samples.QueryByObject(ctx, []string{obj}).Content()
	require.Len(t, got, 2)
	assert.Equal(t, "40", got[0].Value)
}

func TestDriver_DeleteAndEmpty(t *testing.T) {
	store := openInMemory(t)
	ctx := context.Background()
	strs := NewDriver[domain.String](store)
	a := domain.NewString("o1", "a", "")
	b := domain.NewString("o2", "b", "")
	b.Created = 300
	strs.Publish(ctx, []domain.String{a, b})

	del := strs.Delete(ctx, []domain.EntityDeleteRequest{{Target: a.UUID}, {Target: a.UUID}})
	assert.Equal(t, domain.ResultOk, del.Results()[0].Type)
	assert.Equal(t, domain.ResultNotFound, del.Results()[1].Type)

	kept := strs.Empty(ctx, []domain.EntityEmptyRequest{{EntityUUID: "o2", Before: 200}})
	assert.Equal(t, domain.ResultEmpty, kept.Results()[0].Type)

	emptied := strs.Empty(ctx, []domain.EntityEmptyRequest{{EntityUUID: "o2"}})
	assert.Equal(t, []bool{true}, emptied.Content())
	assert.True(t, strs.QueryByObject(ctx, []string{"o2"}).Results()[0].Type == domain.ResultEmpty)
}

func TestDriver_Closed(t *testing.T) {
	store, err := Open("kv", InMemoryConfig(), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	resp := NewDriver[domain.String](store).Read(context.Background(), []string{"a", "b", "c"})
	require.Equal(t, 3, resp.Len())
	assert.Equal(t, domain.ResultNotAvailable, resp.Results()[0].Type)
	assert.Equal(t, "badger database is closed", resp.Results()[0].Message)
}
