package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

const defaultIdeaListLimit = 50

var knownSourceTypes = map[string]bool{
	types.SourceWebContent:    true,
	types.SourceProfileData:   true,
	types.SourceDirectThought: true,
	types.SourceThought:       true,
	types.SourceNote:          true,
}

type IngestDocumentInput struct {
	OwnerID    uuid.UUID       `json:"owner_id"`
	SourceID   string          `json:"source_id"`
	SourceType string          `json:"source_type"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Metadata   json.RawMessage `json:"metadata"`
}

type IngestDocumentResult struct {
	DocumentID      uuid.UUID               `json:"document_id"`
	SectionsCreated int                     `json:"sections_created"`
	IdeaIDs         []uuid.UUID             `json:"idea_ids"`
	Skipped         int                     `json:"skipped"`
	Ideas           []content.IdeaRunResult `json:"ideas"`
}

// Pipeline is the part of the orchestrator the service drives.
type Pipeline interface {
	ProcessDocument(ctx context.Context, rawDocumentID uuid.UUID, fromBatch bool) (content.DocumentRunResult, error)
	RunIdea(ctx context.Context, ideaID uuid.UUID, fromBatch bool) content.IdeaRunResult
}

type ContentService interface {
	IngestDocument(ctx context.Context, in IngestDocumentInput) (IngestDocumentResult, error)
	ExtractDocument(ctx context.Context, rawDocumentID uuid.UUID, fromBatch bool) (content.DocumentRunResult, error)
	RegenerateIdea(ctx context.Context, ideaID uuid.UUID) (content.IdeaRunResult, error)
	ListIdeas(ctx context.Context, ownerID uuid.UUID, limit int) ([]*types.Idea, error)
	ListDrafts(ctx context.Context, ideaID uuid.UUID) ([]*types.Draft, error)
	GetDraft(ctx context.Context, draftID uuid.UUID) (*types.Draft, error)
}

type contentService struct {
	db        *gorm.DB
	log       *logger.Logger
	documents repos.RawDocumentRepo
	ideas     repos.IdeaRepo
	drafts    repos.DraftRepo
	normalize content.NormalizeDeps
	pipeline  Pipeline
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	documents repos.RawDocumentRepo,
	ideas repos.IdeaRepo,
	drafts repos.DraftRepo,
	normalize content.NormalizeDeps,
	pipeline Pipeline,
) ContentService {
	return &contentService{
		db:        db,
		log:       baseLog.With("service", "ContentService"),
		documents: documents,
		ideas:     ideas,
		drafts:    drafts,
		normalize: normalize,
		pipeline:  pipeline,
	}
}

// IngestDocument stores the document, normalizes it into sections and runs
// the pipeline over it. Normalization failures are returned; the document row
// stays pending and ExtractDocument normalizes it on the next batch run.
func (s *contentService) IngestDocument(ctx context.Context, in IngestDocumentInput) (IngestDocumentResult, error) {
	out := IngestDocumentResult{IdeaIDs: []uuid.UUID{}, Ideas: []content.IdeaRunResult{}}
	if in.OwnerID == uuid.Nil {
		return out, fmt.Errorf("missing owner_id: %w", apierr.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return out, fmt.Errorf("missing content: %w", apierr.ErrInvalidInput)
	}
	sourceType := strings.ToLower(strings.TrimSpace(in.SourceType))
	if sourceType == "" {
		sourceType = types.SourceWebContent
	}
	if !knownSourceTypes[sourceType] {
		return out, fmt.Errorf("unknown source_type %q: %w", in.SourceType, apierr.ErrInvalidInput)
	}
	var meta datatypes.JSON
	if len(in.Metadata) > 0 && string(in.Metadata) != "null" {
		if !json.Valid(in.Metadata) {
			return out, fmt.Errorf("metadata is not valid JSON: %w", apierr.ErrInvalidInput)
		}
		meta = datatypes.JSON(in.Metadata)
	}

	doc := &types.RawDocument{
		OwnerID:    in.OwnerID,
		SourceID:   strings.TrimSpace(in.SourceID),
		SourceType: sourceType,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Metadata:   meta,
	}
	if err := s.documents.Create(dbctx.Context{Ctx: ctx, Tx: s.db}, doc); err != nil {
		s.log.Error("IngestDocument: create document failed", "owner_id", in.OwnerID, "error", err)
		return out, err
	}
	out.DocumentID = doc.ID

	norm, err := content.NormalizeDocument(ctx, s.normalize, content.NormalizeInput{Document: doc})
	if err != nil {
		s.log.Error("IngestDocument: normalize failed", "raw_document_id", doc.ID, "error", err)
		return out, err
	}
	out.SectionsCreated = norm.SectionsCreated

	run, err := s.pipeline.ProcessDocument(ctx, doc.ID, false)
	if err != nil {
		return out, err
	}
	out.IdeaIDs = run.IdeaIDs
	out.Skipped = run.Skipped
	out.Ideas = run.Ideas
	s.log.Info("IngestDocument: done",
		"raw_document_id", doc.ID,
		"sections", out.SectionsCreated,
		"ideas", len(out.IdeaIDs),
		"skipped", out.Skipped,
	)
	return out, nil
}

// ExtractDocument runs the pipeline for a stored document, normalizing it
// first when it has no sections yet.
func (s *contentService) ExtractDocument(ctx context.Context, rawDocumentID uuid.UUID, fromBatch bool) (content.DocumentRunResult, error) {
	if rawDocumentID == uuid.Nil {
		return content.DocumentRunResult{}, fmt.Errorf("missing document id: %w", apierr.ErrInvalidInput)
	}
	dbc := dbctx.Context{Ctx: ctx}
	doc, err := s.documents.GetByID(dbc, rawDocumentID)
	if err != nil {
		return content.DocumentRunResult{}, err
	}
	n, err := s.normalize.Sections.CountByDocument(dbc, doc.ID)
	if err != nil {
		return content.DocumentRunResult{}, err
	}
	if n == 0 {
		norm, err := content.NormalizeDocument(ctx, s.normalize, content.NormalizeInput{Document: doc})
		if err != nil {
			s.log.Error("ExtractDocument: normalize failed", "raw_document_id", doc.ID, "error", err)
			return content.DocumentRunResult{}, err
		}
		s.log.Info("ExtractDocument: normalized", "raw_document_id", doc.ID, "sections", norm.SectionsCreated)
	}
	return s.pipeline.ProcessDocument(ctx, doc.ID, fromBatch)
}

func (s *contentService) RegenerateIdea(ctx context.Context, ideaID uuid.UUID) (content.IdeaRunResult, error) {
	if ideaID == uuid.Nil {
		return content.IdeaRunResult{}, fmt.Errorf("missing idea id: %w", apierr.ErrInvalidInput)
	}
	if _, err := s.ideas.GetByID(dbctx.Context{Ctx: ctx}, ideaID); err != nil {
		return content.IdeaRunResult{}, err
	}
	return s.pipeline.RunIdea(ctx, ideaID, false), nil
}

func (s *contentService) ListIdeas(ctx context.Context, ownerID uuid.UUID, limit int) ([]*types.Idea, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_id: %w", apierr.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultIdeaListLimit
	}
	return s.ideas.ListByOwner(dbctx.Context{Ctx: ctx}, ownerID, limit)
}

func (s *contentService) ListDrafts(ctx context.Context, ideaID uuid.UUID) ([]*types.Draft, error) {
	if ideaID == uuid.Nil {
		return nil, fmt.Errorf("missing idea id: %w", apierr.ErrInvalidInput)
	}
	if _, err := s.ideas.GetByID(dbctx.Context{Ctx: ctx}, ideaID); err != nil {
		return nil, err
	}
	return s.drafts.ListByIdea(dbctx.Context{Ctx: ctx}, ideaID)
}

func (s *contentService) GetDraft(ctx context.Context, draftID uuid.UUID) (*types.Draft, error) {
	if draftID == uuid.Nil {
		return nil, fmt.Errorf("missing draft id: %w", apierr.ErrInvalidInput)
	}
	return s.drafts.GetByID(dbctx.Context{Ctx: ctx}, draftID)
}
