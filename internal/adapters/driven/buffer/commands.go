package buffer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// Command names understood by Run.
const (
	CommandFlush   = "flush"
	CommandMetrics = "metrics"
)

// Run executes a buffer command.
func (b *Buffer[T]) Run(ctx context.Context, command string, _ map[string]string) domain.CommandResponse {
	switch command {
	case CommandFlush:
		n, err := b.Flush(ctx)
		params := map[string]string{"flushed": strconv.Itoa(n)}
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrDriverUnavailable) {
				status = http.StatusServiceUnavailable
			}
			return domain.CommandResponse{
				StatusCode:  status,
				ContentType: "text/plain",
				Parameters:  params,
				Content:     []byte(err.Error()),
			}
		}
		return domain.CommandResponse{StatusCode: http.StatusOK, Parameters: params}

	case CommandMetrics:
		raw, err := json.Marshal(b.BufferMetrics())
		if err != nil {
			return domain.CommandResponse{StatusCode: http.StatusInternalServerError, Content: []byte(err.Error())}
		}
		return domain.CommandResponse{StatusCode: http.StatusOK, ContentType: "application/json", Content: raw}
	}
	return domain.CommandResponse{
		StatusCode:  http.StatusNotFound,
		ContentType: "text/plain",
		Content:     []byte("unknown command " + strconv.Quote(command)),
	}
}
