package api

import (
	"net/http"
	"time"

	"textile-backoffice/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

// streamChanges relays change notifications as server-sent events until the
// client disconnects
func (h *Handler) streamChanges(c *gin.Context) {
	if h.changes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "change stream is not configured"})
		return
	}

	ctx := c.Request.Context()
	events, err := h.changes.SubscribeChanges(ctx)
	if err != nil {
		h.logger.Error("Failed to subscribe to changes", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "change stream unavailable"})
		return
	}

	util.ChangeSubscribers.Inc()
	defer util.ChangeSubscribers.Dec()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("change", payload)
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
		}
		c.Writer.Flush()
	}
}
