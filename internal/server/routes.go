package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter builds the gin engine with logging, recovery and metrics
// middleware and every route registered.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log), h.metrics.middleware())

	r.GET("/health", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	RegisterRoutes(r.Group("/v1"), h)
	return r
}

// RegisterRoutes registers the prediction API under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/schema", h.HandleSchema)
	rg.POST("/predict", h.HandlePredict)
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
