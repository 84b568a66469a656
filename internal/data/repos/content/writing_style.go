package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type WritingStyleRepo interface {
	// GetByOwner returns (nil, nil) when the owner has no style on file.
	GetByOwner(dbc dbctx.Context, ownerID uuid.UUID) (*types.WritingStyle, error)
	Upsert(dbc dbctx.Context, style *types.WritingStyle) error
}

type writingStyleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWritingStyleRepo(db *gorm.DB, baseLog *logger.Logger) WritingStyleRepo {
	return &writingStyleRepo{db: db, log: baseLog.With("repo", "WritingStyleRepo")}
}

func (r *writingStyleRepo) GetByOwner(dbc dbctx.Context, ownerID uuid.UUID) (*types.WritingStyle, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.WritingStyle
	if err := transaction.WithContext(dbc.Context()).Where("owner_id = ?", ownerID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *writingStyleRepo) Upsert(dbc dbctx.Context, style *types.WritingStyle) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tone", "voice_notes", "sample_posts", "banned_phrases", "updated_at"}),
	}).Create(style).Error
}
