package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/postforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/postforge-backend/internal/http/middleware"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins string

	ContentHandler *httpH.ContentHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.ContentHandler != nil {
		api.POST("/documents", cfg.ContentHandler.IngestDocument)
		api.POST("/documents/:id/extract", cfg.ContentHandler.ExtractDocument)
		api.GET("/owners/:owner_id/ideas", cfg.ContentHandler.ListIdeas)
		api.GET("/ideas/:id/drafts", cfg.ContentHandler.ListDrafts)
		api.POST("/ideas/:id/regenerate", cfg.ContentHandler.RegenerateIdea)
		api.GET("/drafts/:id", cfg.ContentHandler.GetDraft)
	}

	return r
}
