package content

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type IdeaRepo interface {
	// InsertIfAbsent inserts idea unless a live idea with the same owner and
	// signature exists. It reports whether a row was written. The check and
	// the insert are a single statement, so concurrent callers cannot both win.
	InsertIfAbsent(dbc dbctx.Context, idea *types.Idea) (bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Idea, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit int) ([]*types.Idea, error)
	ListByRawDocument(dbc dbctx.Context, rawDocumentID uuid.UUID) ([]*types.Idea, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type ideaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdeaRepo(db *gorm.DB, baseLog *logger.Logger) IdeaRepo {
	return &ideaRepo{db: db, log: baseLog.With("repo", "IdeaRepo")}
}

func (r *ideaRepo) InsertIfAbsent(dbc dbctx.Context, idea *types.Idea) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if idea == nil || idea.DedupeSignature == "" {
		return false, fmt.Errorf("insert idea: signature required: %w", apierr.ErrInvalidInput)
	}

	res := transaction.WithContext(dbc.Context()).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "owner_id"}, {Name: "dedupe_signature"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "deleted_at IS NULL"}}},
		DoNothing:   true,
	}).Create(idea)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			idea.ID = uuid.Nil
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		idea.ID = uuid.Nil
		return false, nil
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *ideaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Idea, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var idea types.Idea
	err := transaction.WithContext(dbc.Context()).Where("id = ?", id).First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("idea %s: %w", id, apierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit int) ([]*types.Idea, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).Where("owner_id = ?", ownerID).Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Idea
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ideaRepo) ListByRawDocument(dbc dbctx.Context, rawDocumentID uuid.UUID) ([]*types.Idea, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Idea
	if err := transaction.WithContext(dbc.Context()).
		Where("raw_document_id = ?", rawDocumentID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ideaRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).Where("id = ?", id).Delete(&types.Idea{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("idea %s: %w", id, apierr.ErrNotFound)
	}
	return nil
}
