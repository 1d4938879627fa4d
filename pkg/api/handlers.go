package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// healthHandler reports liveness only; the core holds no long-lived
// connections an operator needs visibility into beyond the event feed.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// recentEventsHandler returns the most recent domain events published to
// the bus (spec §4.6's ring buffer), newest last. ?limit caps the count
// (default 100, max 1000).
func (s *Server) recentEventsHandler(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 1000 {
		limit = 1000
	}

	if s.bus == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": s.bus.Recent(limit)})
}
