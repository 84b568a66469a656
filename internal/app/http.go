package app

import (
	pfhttp "github.com/yungbote/postforge-backend/internal/http"
	httpH "github.com/yungbote/postforge-backend/internal/http/handlers"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, s Services) *pfhttp.Server {
	log.Info("Wiring handlers...")
	return pfhttp.NewServer(pfhttp.RouterConfig{
		Log:            log.With("component", "http"),
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		ContentHandler: httpH.NewContentHandler(s.Content),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}
