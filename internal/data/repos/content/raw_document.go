package content

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type RawDocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.RawDocument) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RawDocument, error)
	// ListPending returns documents with no completed extraction, oldest first.
	ListPending(dbc dbctx.Context, ownerID *uuid.UUID, limit int) ([]*types.RawDocument, error)
	MarkExtracted(dbc dbctx.Context, id uuid.UUID, at time.Time) error
}

type rawDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRawDocumentRepo(db *gorm.DB, baseLog *logger.Logger) RawDocumentRepo {
	return &rawDocumentRepo{db: db, log: baseLog.With("repo", "RawDocumentRepo")}
}

func (r *rawDocumentRepo) Create(dbc dbctx.Context, doc *types.RawDocument) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if doc == nil {
		return fmt.Errorf("raw document required: %w", apierr.ErrInvalidInput)
	}
	return transaction.WithContext(dbc.Context()).Create(doc).Error
}

func (r *rawDocumentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RawDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.RawDocument
	err := transaction.WithContext(dbc.Context()).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("raw document %s: %w", id, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *rawDocumentRepo) ListPending(dbc dbctx.Context, ownerID *uuid.UUID, limit int) ([]*types.RawDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).
		Where("extracted_at IS NULL")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.RawDocument
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rawDocumentRepo) MarkExtracted(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.RawDocument{}).
		Where("id = ?", id).
		Update("extracted_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("raw document %s: %w", id, apierr.ErrNotFound)
	}
	return nil
}
