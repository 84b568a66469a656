package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/postforge-backend/internal/modules/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
	"github.com/yungbote/postforge-backend/internal/services"
)

type Services struct {
	Pipeline     config.Pipeline
	Orchestrator *content.Orchestrator
	Content      services.ContentService
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	pipelineCfg := config.Load(log)
	index, err := resolveSectionIndex(ctx, log, cfg, r.Section)
	if err != nil {
		return Services{}, fmt.Errorf("init section index: %w", err)
	}

	deps := content.Deps{
		Log:       log,
		Config:    pipelineCfg,
		Documents: r.RawDocument,
		Ideas:     r.Idea,
		Insights:  r.Insight,
		Drafts:    r.Draft,
		Styles:    r.WritingStyle,
		Gen:       c.LLM,
		Embed:     c.LLM,
		Index:     index,
	}
	orch := content.NewOrchestrator(log, pipelineCfg, content.DefaultStages(deps), content.NewBusNotifier(c.Bus))

	normalize := content.NormalizeDeps{
		Log:      log,
		Sections: r.Section,
		Embed:    c.LLM,
		Index:    index,
		Config:   pipelineCfg,
	}
	svc := services.NewContentService(db, log, r.RawDocument, r.Idea, r.Draft, normalize, orch)

	return Services{Pipeline: pipelineCfg, Orchestrator: orch, Content: svc}, nil
}
