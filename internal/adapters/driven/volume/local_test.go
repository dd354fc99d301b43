package volume

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/logger"
)

func newTestVolume(t *testing.T) *Local {
	t.Helper()
	v, err := NewLocal(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	return v
}

func TestLocal_WriteAndRead(t *testing.T) {
	v := newTestVolume(t)

	require.NoError(t, v.WriteString("pages/a.txt", "hello"))
	got, err := v.ReadString("pages/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	require.NoError(t, v.WriteString("pages/a.txt", "replaced"))
	got, err = v.ReadString("/pages/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got)
}

func TestLocal_ReadMissing(t *testing.T) {
	v := newTestVolume(t)

	_, err := v.ReadString("nope.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocal_JSON(t *testing.T) {
	v := newTestVolume(t)
	type page struct {
		Sequence int      `json:"sequence"`
		Items    []string `json:"items"`
	}

	require.NoError(t, v.WriteJSON("p/1.json", page{Sequence: 1, Items: []string{"a"}}))

	var got page
	require.NoError(t, v.ReadJSON("p/1.json", &got))
	assert.Equal(t, page{Sequence: 1, Items: []string{"a"}}, got)

	require.NoError(t, v.WriteString("p/bad.json", "{"))
	assert.Error(t, v.ReadJSON("p/bad.json", &got))
}

func TestLocal_ListFiles(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.WriteString("d/b", "2"))
	require.NoError(t, v.WriteString("d/a", "1"))
	require.NoError(t, v.WriteString("d/sub/c", "3"))
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "d", ".hidden"), nil, 0600))

	files, err := v.ListFiles("d")
	require.NoError(t, err)
	assert.Equal(t, []string{"d/a", "d/b"}, files)

	files, err = v.ListFiles("missing")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocal_Delete(t *testing.T) {
	v := newTestVolume(t)
	require.NoError(t, v.WriteString("x", "1"))

	require.NoError(t, v.Delete("x"))
	require.NoError(t, v.Delete("x"))

	_, err := v.ReadString("x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocal_RejectsEscape(t *testing.T) {
	v := newTestVolume(t)

	assert.ErrorIs(t, v.WriteString("../outside", "x"), domain.ErrInvalidInput)
	_, err := v.ReadString("a/../../outside")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLocal_Listener(t *testing.T) {
	v := newTestVolume(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := v.CreateListener(ctx, "watched")
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "watched", "page-1"), []byte("x"), 0600))

	select {
	case ev := <-l.Events():
		assert.Equal(t, "watched/page-1", ev.Path)
		assert.Contains(t, []driven.VolumeEventType{driven.VolumeEventCreated, driven.VolumeEventChanged}, ev.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestLocal_ListenerClosesOnCancel(t *testing.T) {
	v := newTestVolume(t)
	ctx, cancel := context.WithCancel(context.Background())

	l, err := v.CreateListener(ctx, "watched")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-l.Events():
		for ok {
			_, ok = <-l.Events()
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed")
	}
	assert.NoError(t, l.Close())
}

func TestConvertOp(t *testing.T) {
	typ, ok := convertOp(fsnotify.Create)
	assert.True(t, ok)
	assert.Equal(t, driven.VolumeEventCreated, typ)

	typ, _ = convertOp(fsnotify.Rename)
	assert.Equal(t, driven.VolumeEventDeleted, typ)

	_, ok = convertOp(fsnotify.Chmod)
	assert.False(t, ok)
}
