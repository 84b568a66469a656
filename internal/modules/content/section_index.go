package content

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
	"github.com/yungbote/postforge-backend/internal/platform/pinecone"
)

const sectionNamespace = "sections"

// SectionIndex is the similarity-search side of the Section Store.
// Search returns only matches scoring at or above threshold, best first.
type SectionIndex interface {
	// Index makes already-persisted sections searchable.
	Index(ctx context.Context, sections []*types.Section, vectors [][]float32) error
	// Remove drops sections from the index; unknown ids are ignored.
	Remove(ctx context.Context, sectionIDs []uuid.UUID) error
	Search(ctx context.Context, ownerID uuid.UUID, query []float32, threshold float64, topK int) ([]types.SectionMatch, error)
}

type repoSectionIndex struct {
	sections repos.SectionRepo
}

// NewRepoSectionIndex searches embeddings stored on the section rows.
func NewRepoSectionIndex(sections repos.SectionRepo) SectionIndex {
	return &repoSectionIndex{sections: sections}
}

func (x *repoSectionIndex) Index(context.Context, []*types.Section, [][]float32) error { return nil }

func (x *repoSectionIndex) Remove(context.Context, []uuid.UUID) error { return nil }

func (x *repoSectionIndex) Search(ctx context.Context, ownerID uuid.UUID, query []float32, threshold float64, topK int) ([]types.SectionMatch, error) {
	return x.sections.SearchSimilar(dbctx.Context{Ctx: ctx}, ownerID, query, threshold, topK)
}

type vectorSectionIndex struct {
	log      *logger.Logger
	vec      pinecone.VectorStore
	sections repos.SectionRepo
}

// NewVectorSectionIndex mirrors sections into an external vector store
// (pinecone or qdrant) and resolves hits back to section rows.
func NewVectorSectionIndex(log *logger.Logger, vec pinecone.VectorStore, sections repos.SectionRepo) SectionIndex {
	return &vectorSectionIndex{log: log.With("component", "VectorSectionIndex"), vec: vec, sections: sections}
}

func (x *vectorSectionIndex) Index(ctx context.Context, sections []*types.Section, vectors [][]float32) error {
	if len(sections) != len(vectors) {
		return fmt.Errorf("section index: %d sections, %d vectors", len(sections), len(vectors))
	}
	batch := make([]pinecone.Vector, 0, len(sections))
	for i, s := range sections {
		if s == nil || s.ID == uuid.Nil || len(vectors[i]) == 0 {
			continue
		}
		meta := map[string]any{
			"owner_id":     s.OwnerID.String(),
			"section_id":   s.ID.String(),
			"section_type": s.SectionType,
		}
		if s.RawDocumentID != nil {
			meta["raw_document_id"] = s.RawDocumentID.String()
		}
		batch = append(batch, pinecone.Vector{ID: s.ID.String(), Values: vectors[i], Metadata: meta})
	}
	if len(batch) == 0 {
		return nil
	}
	return x.vec.Upsert(ctx, sectionNamespace, batch)
}

func (x *vectorSectionIndex) Remove(ctx context.Context, sectionIDs []uuid.UUID) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	ids := make([]string, len(sectionIDs))
	for i, id := range sectionIDs {
		ids[i] = id.String()
	}
	return x.vec.DeleteIDs(ctx, sectionNamespace, ids)
}

func (x *vectorSectionIndex) Search(ctx context.Context, ownerID uuid.UUID, query []float32, threshold float64, topK int) ([]types.SectionMatch, error) {
	if topK <= 0 {
		return []types.SectionMatch{}, nil
	}
	hits, err := x.vec.QueryMatches(ctx, sectionNamespace, query, topK, map[string]any{
		"owner_id": map[string]any{"$eq": ownerID.String()},
	})
	if err != nil {
		return nil, err
	}

	scores := make(map[uuid.UUID]float64, len(hits))
	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		if h.Score < threshold {
			continue
		}
		id, err := uuid.Parse(strings.TrimSpace(h.ID))
		if err != nil {
			x.log.Warn("section index: non-uuid vector id", "id", h.ID)
			continue
		}
		if _, dup := scores[id]; dup {
			continue
		}
		scores[id] = h.Score
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []types.SectionMatch{}, nil
	}

	rows, err := x.sections.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.SectionMatch, 0, len(rows))
	for _, row := range rows {
		// Owner scope is re-checked against the row.
		if row == nil || row.OwnerID != ownerID {
			continue
		}
		out = append(out, types.SectionMatch{
			SectionID:   row.ID,
			Content:     row.Content,
			SectionType: row.SectionType,
			Score:       scores[row.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SectionID.String() < out[j].SectionID.String()
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}
