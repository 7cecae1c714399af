package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/statusdeck/statusdeck-backend/internal/http/handlers"
	httpMW "github.com/statusdeck/statusdeck-backend/internal/http/middleware"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string

	ImportHandler   *httpH.ImportHandler
	SnapshotHandler *httpH.SnapshotHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ImportHandler != nil {
			api.POST("/imports", cfg.ImportHandler.Import)
		}
		if cfg.SnapshotHandler != nil {
			api.GET("/template", cfg.SnapshotHandler.Template)
			api.GET("/snapshots", cfg.SnapshotHandler.List)
			api.GET("/snapshots/current", cfg.SnapshotHandler.GetCurrent)
			api.GET("/snapshots/history", cfg.SnapshotHandler.History)
			api.GET("/snapshots/:id", cfg.SnapshotHandler.GetByID)
			api.GET("/snapshots/:id/diff/:other", cfg.SnapshotHandler.Diff)
			api.POST("/snapshots/:id/rollback", cfg.SnapshotHandler.Rollback)
			api.POST("/snapshots/prune", cfg.SnapshotHandler.Prune)
		}
	}

	return r
}
