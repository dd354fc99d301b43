package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/core/services"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Config configures a Buffer.
type Config struct {
	// ID overrides the default "<target>-<type>-buffer" identifier.
	ID string

	// QueueLimit is the number of entities held in memory.
	QueueLimit int

	// PageSize is the maximum number of entities per page file.
	PageSize int

	// BatchSize is the number of entities per publish to the target.
	BatchSize int

	// Interval is the flush period used by Start.
	Interval time.Duration

	// Dir is the volume directory holding page files.
	Dir string
}

// DefaultConfig returns the defaults applied to zero fields.
func DefaultConfig() Config {
	return Config{
		QueueLimit: 10000,
		PageSize:   1000,
		BatchSize:  500,
		Interval:   time.Second,
		Dir:        "buffer",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueLimit <= 0 {
		c.QueueLimit = d.QueueLimit
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Dir == "" {
		c.Dir = d.Dir
	}
	return c
}

// page is the on-disk form of one overflow page.
type page[T domain.Entity] struct {
	Sequence uint64 `json:"sequence"`
	Items    []T    `json:"items"`
}

// Buffer queues publishes for a target driver.
type Buffer[T domain.Entity] struct {
	id     string
	target driven.EntityDriver[T]
	volume driven.Volume
	cfg    Config
	dir    string
	log    *logger.Logger

	mu        sync.Mutex
	queue     []T
	pages     []uint64 // unread page sequences, oldest first
	pageItems map[uint64]int
	writeSeq  uint64
	lastSeq   uint64
	writing   map[uint64]struct{} // page sequences reserved but not yet written
	closed    bool

	flushMu sync.Mutex

	queueItems gometrics.Meter
	queueBytes gometrics.Meter
	fileItems  gometrics.Meter
	fileBytes  gometrics.Meter

	set     *vm.Set
	flushes *vm.Counter
	flushed *vm.Counter
	latency *vm.Histogram
}

var (
	_ driven.EntityDriver[domain.Object] = (*Buffer[domain.Object])(nil)
	_ driven.CommandDriver               = (*Buffer[domain.Object])(nil)
	_ driven.MetricsDriver               = (*Buffer[domain.Object])(nil)
)

// New creates a buffer for target storing overflow pages on volume. Pages
// left by a previous process are picked up and flushed first.
func New[T domain.Entity](target driven.EntityDriver[T], volume driven.Volume, cfg Config, log *logger.Logger) (*Buffer[T], error) {
	cfg = cfg.withDefaults()
	entityType := domain.TypeOf[T]()
	id := cfg.ID
	if id == "" {
		id = fmt.Sprintf("%s-%s-buffer", target.ID(), strings.ToLower(string(entityType)))
	}

	b := &Buffer[T]{
		id:         id,
		target:     target,
		volume:     volume,
		cfg:        cfg,
		dir:        path.Join(cfg.Dir, target.ID(), string(entityType)),
		log:        log.Named(id),
		pageItems:  make(map[uint64]int),
		writing:    make(map[uint64]struct{}),
		queueItems: gometrics.NewMeter(),
		queueBytes: gometrics.NewMeter(),
		fileItems:  gometrics.NewMeter(),
		fileBytes:  gometrics.NewMeter(),
	}
	if err := b.recover(); err != nil {
		b.stopMeters()
		return nil, err
	}
	b.registerMetrics(entityType)
	return b, nil
}

// recover loads the sequences of pages already on the volume.
func (b *Buffer[T]) recover() error {
	files, err := b.volume.ListFiles(b.dir)
	if err != nil {
		return fmt.Errorf("listing buffer pages: %w", err)
	}
	for _, f := range files {
		var seq uint64
		if _, err := fmt.Sscanf(path.Base(f), "page-%d.json", &seq); err != nil {
			continue
		}
		var p page[T]
		if err := b.volume.ReadJSON(f, &p); err != nil {
			b.log.Warn("skipping unreadable page %s: %v", f, err)
			continue
		}
		b.pages = append(b.pages, seq)
		b.pageItems[seq] = len(p.Items)
		if seq > b.lastSeq {
			b.lastSeq = seq
		}
	}
	sort.Slice(b.pages, func(i, j int) bool { return b.pages[i] < b.pages[j] })
	b.writeSeq = b.lastSeq
	if len(b.pages) > 0 {
		b.log.Info("recovered %d pages", len(b.pages))
	}
	return nil
}

func (b *Buffer[T]) registerMetrics(entityType domain.EntityType) {
	labels := fmt.Sprintf(`{driver=%q,type=%q}`, b.id, string(entityType))
	b.set = vm.NewSet()
	b.set.NewGauge("trakhound_buffer_queue_items"+labels, func() float64 {
		return float64(b.BufferMetrics().Queue.Count)
	})
	b.set.NewGauge("trakhound_buffer_file_items"+labels, func() float64 {
		return float64(b.BufferMetrics().File.Count)
	})
	b.set.NewGauge("trakhound_buffer_queue_item_rate"+labels, func() float64 {
		return b.queueItems.RateMean()
	})
	b.set.NewGauge("trakhound_buffer_file_item_rate"+labels, func() float64 {
		return b.fileItems.RateMean()
	})
	b.flushes = b.set.NewCounter("trakhound_buffer_flushes_total" + labels)
	b.flushed = b.set.NewCounter("trakhound_buffer_flushed_items_total" + labels)
	b.latency = b.set.NewHistogram("trakhound_buffer_flush_duration_seconds" + labels)
}

// MetricsSet returns the buffer's metrics for exposition.
func (b *Buffer[T]) MetricsSet() *vm.Set {
	return b.set
}

// ID returns the buffer identifier.
func (b *Buffer[T]) ID() string {
	return b.id
}

// IsAvailable reports whether the buffer accepts publishes. It does not
// depend on the target.
func (b *Buffer[T]) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

// AvailabilityMessage explains the availability state.
func (b *Buffer[T]) AvailabilityMessage() string {
	if !b.IsAvailable() {
		return "buffer " + b.id + " is closed"
	}
	return "ready"
}

// Read reads from the target.
func (b *Buffer[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return b.target.Read(ctx, uuids)
}

// QueryByObject queries the target.
func (b *Buffer[T]) QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T] {
	return b.target.QueryByObject(ctx, objectUUIDs)
}

// Delete deletes from the target.
func (b *Buffer[T]) Delete(ctx context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	return b.target.Delete(ctx, requests)
}

// Empty empties on the target.
func (b *Buffer[T]) Empty(ctx context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	return b.target.Empty(ctx, requests)
}

// Publish queues entities. Entities that do not fit the queue are written
// to a page; a failed page write is reported per entity.
func (b *Buffer[T]) Publish(ctx context.Context, entities []T) domain.Response[domain.PublishResult[T]] {
	return services.ProcessWrite(ctx, b, entities, func(e T) string { return e.EntityUUID() },
		func(_ context.Context, entities []T) ([]domain.Result[domain.PublishResult[T]], error) {
			queued, spill := b.enqueue(entities)

			results := make([]domain.Result[domain.PublishResult[T]], 0, len(entities))
			for _, e := range queued {
				results = append(results, b.queuedResult(e))
			}
			for _, p := range spill {
				if err := b.writePage(p); err != nil {
					b.log.Error("writing page %d: %v", p.Sequence, err)
					for _, e := range p.Items {
						results = append(results, domain.InternalError[domain.PublishResult[T]](b.id, e.EntityUUID(), err))
					}
					continue
				}
				for _, e := range p.Items {
					results = append(results, b.queuedResult(e))
				}
			}
			return results, nil
		})
}

func (b *Buffer[T]) queuedResult(e T) domain.Result[domain.PublishResult[T]] {
	return domain.Ok(b.id, e.EntityUUID(), domain.PublishResult[T]{Operation: domain.PublishQueued, Entity: e})
}

// enqueue appends what fits to the queue and splits the rest into pages
// whose sequences are reserved before the lock is released. Nothing is
// queued while pages are pending or reserved so that publish order is kept.
func (b *Buffer[T]) enqueue(entities []T) (queued []T, spill []page[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rest := entities[len(entities):]
	for i, e := range entities {
		if len(b.pages) > 0 || len(b.writing) > 0 || len(b.queue) >= b.cfg.QueueLimit {
			rest = entities[i:]
			break
		}
		b.queue = append(b.queue, e)
		queued = append(queued, e)
		b.queueItems.Mark(1)
		b.queueBytes.Mark(sizeOf(e))
	}
	for start := 0; start < len(rest); start += b.cfg.PageSize {
		end := min(start+b.cfg.PageSize, len(rest))
		b.lastSeq++
		b.writing[b.lastSeq] = struct{}{}
		spill = append(spill, page[T]{Sequence: b.lastSeq, Items: rest[start:end]})
	}
	return queued, spill
}

// writePage persists a reserved page and releases its reservation.
func (b *Buffer[T]) writePage(p page[T]) error {
	err := b.volume.WriteJSON(b.pagePath(p.Sequence), p)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.writing, p.Sequence)
	if err != nil {
		return err
	}
	b.pages = append(b.pages, p.Sequence)
	sort.Slice(b.pages, func(i, j int) bool { return b.pages[i] < b.pages[j] })
	b.pageItems[p.Sequence] = len(p.Items)
	if p.Sequence > b.writeSeq {
		b.writeSeq = p.Sequence
	}
	b.fileItems.Mark(int64(len(p.Items)))
	for _, e := range p.Items {
		b.fileBytes.Mark(sizeOf(e))
	}
	return nil
}

// reservedBefore reports whether a page older than seq is still being
// written. Callers hold mu.
func (b *Buffer[T]) reservedBefore(seq uint64) bool {
	for s := range b.writing {
		if s < seq {
			return true
		}
	}
	return false
}

func (b *Buffer[T]) pagePath(seq uint64) string {
	return path.Join(b.dir, fmt.Sprintf("page-%020d.json", seq))
}

// Flush publishes buffered entities to the target: the queue first, then
// pages oldest first. It stops at the first batch the target does not
// accept and returns how many entities were delivered.
func (b *Buffer[T]) Flush(ctx context.Context) (int, error) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if !b.target.IsAvailable() {
		return 0, fmt.Errorf("flushing %s: %w: %s", b.id, domain.ErrDriverUnavailable, b.target.AvailabilityMessage())
	}

	start := time.Now()
	b.flushes.Inc()
	defer b.latency.UpdateDuration(start)

	delivered, err := b.flushQueue(ctx)
	if err != nil {
		return delivered, err
	}
	for {
		b.mu.Lock()
		if len(b.pages) == 0 || b.reservedBefore(b.pages[0]) {
			b.mu.Unlock()
			break
		}
		seq := b.pages[0]
		b.mu.Unlock()

		n, err := b.flushPage(ctx, seq)
		delivered += n
		if err != nil {
			return delivered, err
		}
	}
	if delivered > 0 {
		b.log.Debug("flushed %d entities", delivered)
	}
	return delivered, nil
}

func (b *Buffer[T]) flushQueue(ctx context.Context) (int, error) {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	delivered := 0
	for start := 0; start < len(pending); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(pending))
		if err := b.deliver(ctx, pending[start:end]); err != nil {
			b.mu.Lock()
			b.queue = append(append([]T(nil), pending[start:]...), b.queue...)
			b.mu.Unlock()
			return delivered, err
		}
		delivered += end - start
	}
	return delivered, nil
}

func (b *Buffer[T]) flushPage(ctx context.Context, seq uint64) (int, error) {
	var p page[T]
	if err := b.volume.ReadJSON(b.pagePath(seq), &p); err != nil {
		return 0, fmt.Errorf("reading page %d: %w", seq, err)
	}
	for start := 0; start < len(p.Items); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(p.Items))
		// a retried page republishes its delivered prefix, which the
		// target reports as Unchanged
		if err := b.deliver(ctx, p.Items[start:end]); err != nil {
			return 0, err
		}
	}
	if err := b.volume.Delete(b.pagePath(seq)); err != nil {
		return len(p.Items), fmt.Errorf("deleting page %d: %w", seq, err)
	}

	b.mu.Lock()
	b.pages = b.pages[1:]
	delete(b.pageItems, seq)
	b.mu.Unlock()
	return len(p.Items), nil
}

// deliver publishes one batch and fails unless every entity succeeded.
func (b *Buffer[T]) deliver(ctx context.Context, batch []T) error {
	resp := b.target.Publish(ctx, batch)
	for _, r := range resp.Results() {
		if !r.Type.IsSuccess() {
			return fmt.Errorf("publishing to %s: %s %s", b.target.ID(), r.Type, r.Message)
		}
	}
	b.flushed.Add(len(batch))
	return nil
}

// Start flushes every Interval until ctx ends or Close is called. This
// method blocks.
func (b *Buffer[T]) Start(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !b.IsAvailable() {
				return nil
			}
			if _, err := b.Flush(ctx); err != nil {
				b.log.Debug("flush: %v", err)
			}
		}
	}
}

// Close stops accepting publishes and writes the queue out as page 0 so
// that a new Buffer on the same volume delivers it first.
func (b *Buffer[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	defer b.stopMeters()
	if len(pending) == 0 {
		return nil
	}
	// queued entities predate every page and the queue only fills when no
	// page is pending, so sequence 0 is free
	return b.volume.WriteJSON(b.pagePath(0), page[T]{Sequence: 0, Items: pending})
}

func (b *Buffer[T]) stopMeters() {
	b.queueItems.Stop()
	b.queueBytes.Stop()
	b.fileItems.Stop()
	b.fileBytes.Stop()
}

// BufferMetrics returns a snapshot of the buffer counters.
func (b *Buffer[T]) BufferMetrics() domain.BufferMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	fileCount := 0
	for _, n := range b.pageItems {
		fileCount += n
	}
	readSeq := b.writeSeq
	if len(b.pages) > 0 {
		readSeq = b.pages[0]
	}

	return domain.BufferMetrics{
		DriverID:   b.id,
		EntityType: domain.TypeOf[T](),
		Queue: domain.QueueMetrics{
			Count:          len(b.queue),
			Limit:          b.cfg.QueueLimit,
			TotalItemCount: b.queueItems.Count(),
			TotalSize:      b.queueBytes.Count(),
			ItemRate:       b.queueItems.RateMean(),
			ByteRate:       b.queueBytes.RateMean(),
		},
		File: domain.FileBufferMetrics{
			Count:             fileCount,
			TotalItemCount:    b.fileItems.Count(),
			TotalSize:         b.fileBytes.Count(),
			ItemRate:          b.fileItems.RateMean(),
			ByteRate:          b.fileBytes.RateMean(),
			ReadPageSequence:  readSeq,
			WritePageSequence: b.writeSeq,
			LastPageSequence:  b.lastSeq,
			NextPageSequence:  b.lastSeq + 1,
			IsWriting:         len(b.writing) > 0,
		},
	}
}

func sizeOf(e any) int64 {
	raw, err := json.Marshal(e)
	if err != nil {
		return 0
	}
	return int64(len(raw))
}
