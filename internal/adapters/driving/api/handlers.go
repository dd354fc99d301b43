package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// DefaultQueryTimeout bounds a condition query when none is configured.
const DefaultQueryTimeout = 30 * time.Second

// Handlers serves the HTTP API.
type Handlers struct {
	entities driving.EntityService
	query    driving.QueryService
	drivers  driving.DriverService
	log      *logger.Logger

	version      string
	queryTimeout time.Duration
	metricSets   []*vm.Set
}

// Option configures Handlers.
type Option func(*Handlers)

// WithQueryTimeout bounds each condition query.
func WithQueryTimeout(d time.Duration) Option {
	return func(h *Handlers) {
		if d > 0 {
			h.queryTimeout = d
		}
	}
}

// WithMetricSets adds sets written by GET /metrics.
func WithMetricSets(sets ...*vm.Set) Option {
	return func(h *Handlers) { h.metricSets = append(h.metricSets, sets...) }
}

// WithVersion sets the version reported by GET /health.
func WithVersion(v string) Option {
	return func(h *Handlers) { h.version = v }
}

// NewHandlers creates the API handlers.
func NewHandlers(entities driving.EntityService, query driving.QueryService, drivers driving.DriverService, log *logger.Logger, opts ...Option) *Handlers {
	h := &Handlers{
		entities:     entities,
		query:        query,
		drivers:      drivers,
		log:          log,
		version:      "dev",
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handlers) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		h.log.Debug("%s %s %d %s request_id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), requestID)
	}
}

// entityType parses the :type parameter and writes a 400 on failure.
func entityType(c *gin.Context) (domain.EntityType, bool) {
	t, err := domain.ParseEntityType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeUnsupportedType})
		return "", false
	}
	return t, true
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidBody})
}

// serviceError maps an error returned next to a Response.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeUnsupportedType})
	case errors.Is(err, domain.ErrInvalidInput):
		badBody(c, err)
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
	}
}

// HandleRead handles GET /api/v1/entities/:type.
func (h *Handlers) HandleRead(c *gin.Context) {
	t, ok := entityType(c)
	if !ok {
		return
	}
	resp, err := h.entities.Read(c.Request.Context(), t, c.QueryArray("uuid"))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleQueryByObject handles GET /api/v1/entities/:type/objects.
func (h *Handlers) HandleQueryByObject(c *gin.Context) {
	t, ok := entityType(c)
	if !ok {
		return
	}
	resp, err := h.entities.QueryByObject(c.Request.Context(), t, c.QueryArray("uuid"))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandlePublish handles POST /api/v1/entities/:type. The body is a JSON
// array of entities of that type.
func (h *Handlers) HandlePublish(c *gin.Context) {
	t, ok := entityType(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		badBody(c, err)
		return
	}
	resp, err := h.entities.Publish(c.Request.Context(), t, body)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleDelete handles POST /api/v1/entities/:type/delete.
func (h *Handlers) HandleDelete(c *gin.Context) {
	t, ok := entityType(c)
	if !ok {
		return
	}
	var requests []domain.EntityDeleteRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		badBody(c, err)
		return
	}
	resp, err := h.entities.Delete(c.Request.Context(), t, requests)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleEmpty handles POST /api/v1/entities/:type/empty.
func (h *Handlers) HandleEmpty(c *gin.Context) {
	t, ok := entityType(c)
	if !ok {
		return
	}
	var requests []domain.EntityEmptyRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		badBody(c, err)
		return
	}
	resp, err := h.entities.Empty(c.Request.Context(), t, requests)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleQuery handles POST /api/v1/query. The body is a Statement.
func (h *Handlers) HandleQuery(c *gin.Context) {
	var stmt domain.Statement
	if err := c.ShouldBindJSON(&stmt); err != nil {
		badBody(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	c.JSON(http.StatusOK, h.query.Query(ctx, &stmt))
}

// HandleDrivers handles GET /api/v1/drivers.
func (h *Handlers) HandleDrivers(c *gin.Context) {
	c.JSON(http.StatusOK, h.drivers.Drivers())
}

// HandleBufferMetrics handles GET /api/v1/drivers/metrics.
func (h *Handlers) HandleBufferMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.drivers.BufferMetrics())
}

// HandleCommand handles POST /api/v1/commands/:driver/:command. An
// optional JSON object body supplies the command parameters. The reply
// status is the command's own status code.
func (h *Handlers) HandleCommand(c *gin.Context) {
	var params map[string]string
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			badBody(c, err)
			return
		}
	}
	resp, err := h.drivers.Run(c.Request.Context(), c.Param("driver"), c.Param("command"), params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeDriverNotFound})
			return
		}
		serviceError(c, err)
		return
	}
	c.JSON(resp.StatusCode, domain.NewCommandJSONResponse(resp))
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: h.version})
}

// HandleMetrics handles GET /metrics in Prometheus text format.
func (h *Handlers) HandleMetrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4")
	c.Status(http.StatusOK)
	for _, s := range h.metricSets {
		s.WritePrometheus(c.Writer)
	}
	vm.WritePrometheus(c.Writer, true)
}
