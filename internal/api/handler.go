package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rviscarra/remote-screen-ws/internal/rdisplay"
	"github.com/rviscarra/remote-screen-ws/internal/stream"
)

// MakeHandler returns the HTTP handler serving the stream endpoints and
// the read-only status API
func MakeHandler(srv *stream.Server, display rdisplay.Service, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// viewers connect to the root, like the plain websocket server they replace
	r.GET("/", srv.HandleWebSocket)
	r.GET("/ws", srv.HandleWebSocket)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/screens", func(c *gin.Context) {
		screens, err := display.Screens()
		if err != nil {
			logger.Error("can't list screens", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		screensPayload := make([]screenPayload, len(screens))
		for i, s := range screens {
			screensPayload[i] = newScreenPayload(s)
		}
		c.JSON(http.StatusOK, screensResponse{Screens: screensPayload})
	})

	api.GET("/sessions", func(c *gin.Context) {
		stats := srv.Sessions()
		sessions := make([]sessionPayload, len(stats))
		for i, st := range stats {
			sessions[i] = newSessionPayload(st)
		}
		c.JSON(http.StatusOK, sessionsResponse{Sessions: sessions})
	})

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"remote", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}
