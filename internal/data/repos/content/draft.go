package content

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

// PostUpdate is the body attached to an existing hook-only draft.
type PostUpdate struct {
	InsightID    *uuid.UUID
	PostText     string
	TemplateUsed string
	PostGen      string
}

type DraftRepo interface {
	Create(dbc dbctx.Context, draft *types.Draft) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Draft, error)
	ListByIdea(dbc dbctx.Context, ideaID uuid.UUID) ([]*types.Draft, error)
	// AttachPost writes the post body and insight reference; status is left
	// alone. A referenced insight must belong to the draft's idea.
	AttachPost(dbc dbctx.Context, draftID uuid.UUID, upd PostUpdate) (*types.Draft, error)
}

type draftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDraftRepo(db *gorm.DB, baseLog *logger.Logger) DraftRepo {
	return &draftRepo{db: db, log: baseLog.With("repo", "DraftRepo")}
}

func (r *draftRepo) Create(dbc dbctx.Context, draft *types.Draft) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if draft == nil || draft.IdeaID == uuid.Nil {
		return fmt.Errorf("draft: idea_id required: %w", apierr.ErrInvalidInput)
	}
	return transaction.WithContext(dbc.Context()).Create(draft).Error
}

func (r *draftRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Draft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Draft
	err := transaction.WithContext(dbc.Context()).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("draft %s: %w", id, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *draftRepo) ListByIdea(dbc dbctx.Context, ideaID uuid.UUID) ([]*types.Draft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Draft
	if err := transaction.WithContext(dbc.Context()).
		Where("idea_id = ?", ideaID).
		Order("created_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *draftRepo) AttachPost(dbc dbctx.Context, draftID uuid.UUID, upd PostUpdate) (*types.Draft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out *types.Draft
	err := transaction.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		var draft types.Draft
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("id = ?", draftID).First(&draft).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("draft %s: %w", draftID, apierr.ErrNotFound)
			}
			return err
		}
		if upd.InsightID != nil {
			var insight types.Insight
			if err := tx.Where("id = ?", *upd.InsightID).First(&insight).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("insight %s: %w", *upd.InsightID, apierr.ErrNotFound)
				}
				return err
			}
			if insight.IdeaID != draft.IdeaID {
				return fmt.Errorf("insight %s belongs to idea %s, draft is for %s: %w",
					insight.ID, insight.IdeaID, draft.IdeaID, apierr.ErrInvalidInput)
			}
		}
		updates := map[string]any{
			"insight_id":    upd.InsightID,
			"post_text":     upd.PostText,
			"template_used": upd.TemplateUsed,
			"post_gen":      upd.PostGen,
		}
		if err := tx.Model(&draft).Updates(updates).Error; err != nil {
			return err
		}
		draft.InsightID = upd.InsightID
		draft.PostText = upd.PostText
		draft.TemplateUsed = upd.TemplateUsed
		draft.PostGen = upd.PostGen
		out = &draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
