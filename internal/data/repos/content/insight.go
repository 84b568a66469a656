package content

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type InsightRepo interface {
	Create(dbc dbctx.Context, insight *types.Insight) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Insight, error)
	// LatestForIdea returns (nil, nil) when the idea has no insight.
	LatestForIdea(dbc dbctx.Context, ideaID uuid.UUID) (*types.Insight, error)
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	return &insightRepo{db: db, log: baseLog.With("repo", "InsightRepo")}
}

func (r *insightRepo) Create(dbc dbctx.Context, insight *types.Insight) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if insight == nil || insight.IdeaID == uuid.Nil {
		return fmt.Errorf("insight: idea_id required: %w", apierr.ErrInvalidInput)
	}
	return transaction.WithContext(dbc.Context()).Create(insight).Error
}

func (r *insightRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Insight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Insight
	err := transaction.WithContext(dbc.Context()).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("insight %s: %w", id, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *insightRepo) LatestForIdea(dbc dbctx.Context, ideaID uuid.UUID) (*types.Insight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Insight
	if err := transaction.WithContext(dbc.Context()).
		Where("idea_id = ?", ideaID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
