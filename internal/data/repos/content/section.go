package content

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type SectionRepo interface {
	CreateBatch(dbc dbctx.Context, sections []*types.Section) error
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit int) ([]*types.Section, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Section, error)
	CountByDocument(dbc dbctx.Context, rawDocumentID uuid.UUID) (int64, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	// SearchSimilar scans the owner's sections and returns those scoring at or
	// above threshold, best first, at most limit.
	SearchSimilar(dbc dbctx.Context, ownerID uuid.UUID, query []float32, threshold float64, limit int) ([]types.SectionMatch, error)
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) CreateBatch(dbc dbctx.Context, sections []*types.Section) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sections) == 0 {
		return nil
	}
	// Content can be large; keep batches small.
	const batchSize = 100
	return transaction.WithContext(dbc.Context()).CreateInBatches(sections, batchSize).Error
}

func (r *sectionRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit int) ([]*types.Section, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).Where("owner_id = ?", ownerID).Order("created_at ASC, section_index ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Section
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Section, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Section
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionRepo) CountByDocument(dbc dbctx.Context, rawDocumentID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.Section{}).
		Where("raw_document_id = ?", rawDocumentID).
		Count(&n).Error
	return n, err
}

func (r *sectionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Context()).Where("id IN ?", ids).Delete(&types.Section{}).Error
}

func (r *sectionRepo) SearchSimilar(dbc dbctx.Context, ownerID uuid.UUID, query []float32, threshold float64, limit int) ([]types.SectionMatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("search_similar: empty query vector: %w", apierr.ErrInvalidInput)
	}
	if limit <= 0 {
		return []types.SectionMatch{}, nil
	}

	var rows []*types.Section
	if err := transaction.WithContext(dbc.Context()).
		Select("id", "content", "section_type", "embedding").
		Where("owner_id = ? AND embedding IS NOT NULL", ownerID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]types.SectionMatch, 0, limit)
	skipped := 0
	for _, row := range rows {
		vec, err := DecodeEmbedding(row.Embedding)
		if err != nil || len(vec) != len(query) {
			skipped++
			continue
		}
		score := CosineSimilarity(query, vec)
		if score < threshold {
			continue
		}
		matches = append(matches, types.SectionMatch{
			SectionID:   row.ID,
			Content:     row.Content,
			SectionType: row.SectionType,
			Score:       score,
		})
	}
	if skipped > 0 {
		r.log.Warn("sections skipped during similarity scan", "owner_id", ownerID, "skipped", skipped)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].SectionID.String() < matches[j].SectionID.String()
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
