package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the /api/v1 endpoints on rg.
//
// Entity endpoints (":type" is an entity type name, case-insensitive):
//
//	GET  /entities/:type?uuid=..          read by UUID
//	GET  /entities/:type/objects?uuid=..  entities owned by objects
//	POST /entities/:type                  publish a JSON array of entities
//	POST /entities/:type/delete           delete requests
//	POST /entities/:type/empty            empty requests
//
// Query and driver endpoints:
//
//	POST /query                        condition query
//	GET  /drivers                      driver availability and routes
//	GET  /drivers/metrics              buffer metrics
//	POST /commands/:driver/:command    run a driver command
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	entities := rg.Group("/entities/:type")
	entities.GET("", h.HandleRead)
	entities.GET("/objects", h.HandleQueryByObject)
	entities.POST("", h.HandlePublish)
	entities.POST("/delete", h.HandleDelete)
	entities.POST("/empty", h.HandleEmpty)

	rg.POST("/query", h.HandleQuery)
	rg.GET("/drivers", h.HandleDrivers)
	rg.GET("/drivers/metrics", h.HandleBufferMetrics)
	rg.POST("/commands/:driver/:command", h.HandleCommand)
}

// NewRouter builds the full router: request logging, recovery, the API
// under /api/v1, /health and the /metrics exposition.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(h.requestLogger(), gin.Recovery())
	RegisterRoutes(router.Group("/api/v1"), h)
	router.GET("/health", h.HandleHealth)
	router.GET("/metrics", h.HandleMetrics)
	return router
}
