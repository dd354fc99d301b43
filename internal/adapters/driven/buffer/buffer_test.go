package buffer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/adapters/driven/storage/memory"
	"github.com/trakhound/trakhound-core/internal/adapters/driven/volume"
	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/logger"
)

func newTestBuffer(t *testing.T, cfg Config) (*Buffer[domain.String], *memory.Driver[domain.String], *volume.Local) {
	t.Helper()
	vol, err := volume.NewLocal(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	target := memory.NewDriver[domain.String]("mem")
	b, err := New[domain.String](target, vol, cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, target, vol
}

func sampleStrings(n int) []domain.String {
	out := make([]domain.String, n)
	for i := range out {
		out[i] = domain.NewString(domain.ObjectUUID("main", fmt.Sprintf("/m/%d", i)), "v", "")
	}
	return out
}

func TestBuffer_ID(t *testing.T) {
	b, _, _ := newTestBuffer(t, Config{})
	assert.Equal(t, "mem-string-buffer", b.ID())

	named, _, _ := newTestBuffer(t, Config{ID: "custom"})
	assert.Equal(t, "custom", named.ID())
}

func TestBuffer_PublishQueuesUntilFlush(t *testing.T) {
	b, target, _ := newTestBuffer(t, Config{})
	ctx := context.Background()

	resp := b.Publish(ctx, sampleStrings(3))
	require.Len(t, resp.Results(), 3)
	for _, r := range resp.Results() {
		assert.Equal(t, domain.ResultOk, r.Type)
		assert.Equal(t, b.ID(), r.Source)
		assert.Equal(t, domain.PublishQueued, r.Content.Operation)
	}
	assert.Equal(t, 0, target.Len())
	assert.Equal(t, 3, b.BufferMetrics().Queue.Count)

	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, target.Len())

	m := b.BufferMetrics()
	assert.Zero(t, m.Queue.Count)
	assert.Equal(t, int64(3), m.Queue.TotalItemCount)
	assert.Positive(t, m.Queue.TotalSize)
}

func TestBuffer_PublishEmpty(t *testing.T) {
	b, _, _ := newTestBuffer(t, Config{})
	resp := b.Publish(context.Background(), nil)
	require.Len(t, resp.Results(), 1)
	assert.Equal(t, domain.ResultBadRequest, resp.Results()[0].Type)
}

func TestBuffer_OverflowSpillsToPages(t *testing.T) {
	b, target, vol := newTestBuffer(t, Config{QueueLimit: 2, PageSize: 2, BatchSize: 2})
	ctx := context.Background()

	resp := b.Publish(ctx, sampleStrings(5))
	assert.Len(t, resp.Success(), 5)

	m := b.BufferMetrics()
	assert.Equal(t, 2, m.Queue.Count)
	assert.Equal(t, 2, m.Queue.Limit)
	assert.Equal(t, 3, m.File.Count)
	assert.Equal(t, uint64(1), m.File.ReadPageSequence)
	assert.Equal(t, uint64(2), m.File.WritePageSequence)
	assert.Equal(t, uint64(2), m.File.LastPageSequence)
	assert.Equal(t, uint64(3), m.File.NextPageSequence)
	assert.False(t, m.File.IsWriting)
	require.NoError(t, m.File.Validate())

	files, err := vol.ListFiles(b.dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, target.Len())

	files, err = vol.ListFiles(b.dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	m = b.BufferMetrics()
	assert.Zero(t, m.File.Count)
	assert.Equal(t, m.File.WritePageSequence, m.File.ReadPageSequence)
	assert.Equal(t, int64(3), m.File.TotalItemCount)
	require.NoError(t, m.File.Validate())
}

func TestBuffer_KeepsPublishOrder(t *testing.T) {
	b, target, _ := newTestBuffer(t, Config{QueueLimit: 1})
	ctx := context.Background()
	obj := domain.ObjectUUID("main", "/m")

	first := domain.NewString(obj, "first", "")
	second := domain.NewString(obj, "second", "")
	b.Publish(ctx, []domain.String{first})
	b.Publish(ctx, []domain.String{second})
	assert.Equal(t, 1, b.BufferMetrics().File.Count)

	_, err := b.Flush(ctx)
	require.NoError(t, err)

	got := target.Read(ctx, []string{first.UUID})
	require.Len(t, got.Content(), 1)
	assert.Equal(t, "second", got.Content()[0].Value)
}

func TestBuffer_ReservedPageKeepsPublishOrder(t *testing.T) {
	b, target, _ := newTestBuffer(t, Config{QueueLimit: 1})
	ctx := context.Background()
	obj := domain.ObjectUUID("main", "/m")
	older := domain.NewString(obj, "older", "")
	newer := domain.NewString(obj, "newer", "")

	b.Publish(ctx, sampleStrings(1))
	queued, spill := b.enqueue([]domain.String{older})
	assert.Empty(t, queued)
	require.Len(t, spill, 1)
	assert.True(t, b.BufferMetrics().File.IsWriting)

	// the queue drains while the older page is still being written
	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b.Publish(ctx, []domain.String{newer})
	assert.Zero(t, b.BufferMetrics().Queue.Count)

	n, err = b.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, target.Read(ctx, []string{older.UUID}).IsNotFound())

	require.NoError(t, b.writePage(spill[0]))
	assert.False(t, b.BufferMetrics().File.IsWriting)
	n, err = b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := target.Read(ctx, []string{older.UUID})
	require.Len(t, got.Content(), 1)
	assert.Equal(t, "newer", got.Content()[0].Value)
}

func TestBuffer_QueueResumesAfterPagesDrain(t *testing.T) {
	b, _, _ := newTestBuffer(t, Config{QueueLimit: 1})
	ctx := context.Background()

	b.Publish(ctx, sampleStrings(2))
	_, err := b.Flush(ctx)
	require.NoError(t, err)

	b.Publish(ctx, sampleStrings(1))
	assert.Equal(t, 1, b.BufferMetrics().Queue.Count)
	assert.Zero(t, b.BufferMetrics().File.Count)
}

func TestBuffer_TargetUnavailable(t *testing.T) {
	b, target, _ := newTestBuffer(t, Config{})
	ctx := context.Background()
	target.SetAvailable(false)

	resp := b.Publish(ctx, sampleStrings(2))
	assert.Len(t, resp.Success(), 2)

	n, err := b.Flush(ctx)
	assert.ErrorIs(t, err, domain.ErrDriverUnavailable)
	assert.Zero(t, n)
	assert.Equal(t, 2, b.BufferMetrics().Queue.Count)

	cmd := b.Run(ctx, CommandFlush, nil)
	assert.Equal(t, http.StatusServiceUnavailable, cmd.StatusCode)
	assert.Equal(t, "0", cmd.Parameters["flushed"])

	target.SetAvailable(true)
	cmd = b.Run(ctx, CommandFlush, nil)
	assert.Equal(t, http.StatusOK, cmd.StatusCode)
	assert.Equal(t, "2", cmd.Parameters["flushed"])
	assert.Equal(t, 2, target.Len())
}

func TestBuffer_PassThrough(t *testing.T) {
	b, target, _ := newTestBuffer(t, Config{})
	ctx := context.Background()
	s := sampleStrings(1)[0]
	target.Publish(ctx, []domain.String{s})

	assert.Len(t, b.Read(ctx, []string{s.UUID}).Content(), 1)
	assert.Len(t, b.QueryByObject(ctx, []string{s.ObjectUUID}).Content(), 1)

	del := b.Delete(ctx, []domain.EntityDeleteRequest{{Target: s.UUID}})
	assert.True(t, del.IsSuccess())
	assert.Zero(t, target.Len())
}

func TestBuffer_CloseAndRecover(t *testing.T) {
	vol, err := volume.NewLocal(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	target := memory.NewDriver[domain.String]("mem")
	ctx := context.Background()

	b, err := New[domain.String](target, vol, Config{QueueLimit: 2, PageSize: 10}, logger.Nop())
	require.NoError(t, err)
	b.Publish(ctx, sampleStrings(4))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.False(t, b.IsAvailable())
	assert.Equal(t, domain.ResultNotAvailable, b.Publish(ctx, sampleStrings(1)).Results()[0].Type)

	reopened, err := New[domain.String](target, vol, Config{QueueLimit: 2, PageSize: 10}, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	m := reopened.BufferMetrics()
	assert.Equal(t, 4, m.File.Count)
	assert.Equal(t, uint64(0), m.File.ReadPageSequence)
	assert.Equal(t, uint64(1), m.File.LastPageSequence)
	require.NoError(t, m.File.Validate())

	n, err := reopened.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, target.Len())
}

func TestBuffer_Commands(t *testing.T) {
	b, _, _ := newTestBuffer(t, Config{})
	ctx := context.Background()
	b.Publish(ctx, sampleStrings(1))

	resp := b.Run(ctx, CommandMetrics, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)

	var m domain.BufferMetrics
	require.NoError(t, json.Unmarshal(resp.Content, &m))
	assert.Equal(t, b.ID(), m.DriverID)
	assert.Equal(t, domain.EntityTypeString, m.EntityType)
	assert.Equal(t, 1, m.Queue.Count)

	assert.Equal(t, http.StatusNotFound, b.Run(ctx, "compact", nil).StatusCode)
}

func TestBuffer_StartFlushesPeriodically(t *testing.T) {
	b, target, _ := newTestBuffer(t, Config{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	b.Publish(ctx, sampleStrings(2))
	require.Eventually(t, func() bool { return target.Len() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestBuffer_MetricsSet(t *testing.T) {
	b, _, _ := newTestBuffer(t, Config{})
	ctx := context.Background()
	b.Publish(ctx, sampleStrings(2))
	_, err := b.Flush(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	b.MetricsSet().WritePrometheus(&buf)
	out := buf.String()
	assert.Contains(t, out, `trakhound_buffer_queue_items{driver="mem-string-buffer",type="String"} 0`)
	assert.Contains(t, out, `trakhound_buffer_flushed_items_total{driver="mem-string-buffer",type="String"} 2`)
	assert.Contains(t, out, "trakhound_buffer_flushes_total")
}
