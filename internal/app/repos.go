package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type Repos struct {
	RawDocument  repos.RawDocumentRepo
	Section      repos.SectionRepo
	Idea         repos.IdeaRepo
	Insight      repos.InsightRepo
	Draft        repos.DraftRepo
	WritingStyle repos.WritingStyleRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		RawDocument:  repos.NewRawDocumentRepo(db, log),
		Section:      repos.NewSectionRepo(db, log),
		Idea:         repos.NewIdeaRepo(db, log),
		Insight:      repos.NewInsightRepo(db, log),
		Draft:        repos.NewDraftRepo(db, log),
		WritingStyle: repos.NewWritingStyleRepo(db, log),
	}
}
