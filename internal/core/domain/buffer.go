package domain

import "fmt"

// BufferMetrics describes the health of a driver's write buffer.
type BufferMetrics struct {
	DriverID   string            `json:"driverId"`
	EntityType EntityType        `json:"entityType"`
	Queue      QueueMetrics      `json:"queue"`
	File       FileBufferMetrics `json:"file"`
}

// QueueMetrics describes the in-memory queue.
type QueueMetrics struct {
	Count          int     `json:"count"`
	Limit          int     `json:"limit"`
	TotalItemCount int64   `json:"totalItemCount"`
	TotalSize      int64   `json:"totalSize"`
	ItemRate       float64 `json:"itemRate"`
	ByteRate       float64 `json:"byteRate"`
}

// FileBufferMetrics describes the file-backed overflow buffer. Pages form
// a log: ReadPageSequence is the oldest unread page, WritePageSequence the
// newest page written, LastPageSequence the highest sequence allocated
// and NextPageSequence the one the next page will take.
type FileBufferMetrics struct {
	Count             int     `json:"count"`
	TotalItemCount    int64   `json:"totalItemCount"`
	TotalSize         int64   `json:"totalSize"`
	ItemRate          float64 `json:"itemRate"`
	ByteRate          float64 `json:"byteRate"`
	ReadPageSequence  uint64  `json:"readPageSequence"`
	WritePageSequence uint64  `json:"writePageSequence"`
	NextPageSequence  uint64  `json:"nextPageSequence"`
	LastPageSequence  uint64  `json:"lastPageSequence"`
	IsWriting         bool    `json:"isWriting"`
}

// Validate checks the page-sequence invariants.
func (m FileBufferMetrics) Validate() error {
	if m.WritePageSequence < m.ReadPageSequence {
		return fmt.Errorf("%w: write page %d behind read page %d",
			ErrInvalidPage, m.WritePageSequence, m.ReadPageSequence)
	}
	if m.IsWriting && m.NextPageSequence != m.LastPageSequence+1 {
		return fmt.Errorf("%w: next page %d does not follow last page %d",
			ErrInvalidPage, m.NextPageSequence, m.LastPageSequence)
	}
	return nil
}
