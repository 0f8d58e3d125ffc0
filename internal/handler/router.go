package handler

import (
	"github.com/CageChen/dirserve/internal/config"
	mfs "github.com/CageChen/dirserve/internal/fs"
	"github.com/CageChen/dirserve/internal/logging"
	"github.com/CageChen/dirserve/internal/metrics"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every handler onto a gin engine. The returned WSHandler
// receives watcher events.
func NewRouter(cfg *config.Config, fs mfs.FileSystem) (*gin.Engine, *WSHandler) {
	fileHandler := NewFileHandler(cfg, fs)
	wsHandler := NewWSHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(logging.Middleware())
	r.Use(metrics.Middleware())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	if cfg.RateLimit > 0 {
		api.Use(rateLimitMiddleware(newClientLimiter(cfg.RateLimit, cfg.RateBurst)))
	}
	{
		api.GET("/list/*path", fileHandler.List)
		api.GET("/binary/*path", fileHandler.Binary)
		api.GET("/ws", wsHandler.HandleWS)
	}

	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// Everything else is a path below the served root
	r.NoRoute(fileHandler.Serve)

	return r, wsHandler
}
