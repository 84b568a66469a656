package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type ExtractIdeasDeps struct {
	Log       *logger.Logger
	Documents repos.RawDocumentRepo
	Ideas     repos.IdeaRepo
	Gen       llm.Generator
	Config    config.Pipeline
}

type ExtractIdeasInput struct {
	RawDocumentID uuid.UUID
	// OnAccepted runs right after each new idea is inserted, before the next
	// candidate is considered.
	OnAccepted func(ctx context.Context, idea *types.Idea)
}

type ExtractIdeasOutput struct {
	Created    []*types.Idea `json:"-"`
	IdeaIDs    []uuid.UUID   `json:"idea_ids"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Candidates int           `json:"candidates"`
}

type ideaCandidate struct {
	Topic    string `json:"topic"`
	Summary  string `json:"summary"`
	EQ       string `json:"eq"`
	Takeaway string `json:"takeaway"`
	Bucket   string `json:"bucket"`
}

// ExtractIdeas asks for idea candidates, drops duplicates of the owner's live
// ideas and persists the rest. A failed or unparseable generation yields an
// empty result, not an error, and leaves the document pending. A failed insert
// is counted and the next candidate is tried.
func ExtractIdeas(ctx context.Context, deps ExtractIdeasDeps, in ExtractIdeasInput) (ExtractIdeasOutput, error) {
	out := ExtractIdeasOutput{IdeaIDs: []uuid.UUID{}}
	if deps.Log == nil || deps.Documents == nil || deps.Ideas == nil || deps.Gen == nil {
		return out, fmt.Errorf("extract_ideas: missing deps")
	}
	if in.RawDocumentID == uuid.Nil {
		return out, fmt.Errorf("extract_ideas: missing raw_document_id")
	}
	log := deps.Log.With("stage", "extract_ideas", "raw_document_id", in.RawDocumentID.String())

	doc, err := deps.Documents.GetByID(dbctx.Context{Ctx: ctx}, in.RawDocumentID)
	if err != nil {
		return out, fmt.Errorf("extract_ideas: %w", err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		log.Info("extract_ideas: empty document")
		markExtracted(ctx, log, deps.Documents, doc.ID)
		return out, nil
	}

	raw, err := deps.Gen.Generate(ctx, extractRequest(doc, deps.Config))
	if err != nil {
		log.Warn("extract_ideas: generation failed", "error", err)
		return out, nil
	}
	candidates, err := parseIdeaCandidates(raw)
	if err != nil {
		log.Warn("extract_ideas: unparseable output", "error", err)
		return out, nil
	}
	if max := deps.Config.Extract.MaxIdeas; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	out.Candidates = len(candidates)

	for _, c := range candidates {
		idea := &types.Idea{
			OwnerID:         doc.OwnerID,
			SourceID:        doc.SourceID,
			RawDocumentID:   doc.ID,
			Topic:           c.Topic,
			Summary:         c.Summary,
			EQ:              c.EQ,
			Takeaway:        c.Takeaway,
			Bucket:          bucketFor(c.Bucket, deps.Config.Extract.Buckets),
			DedupeSignature: Signature(c.Topic, c.Takeaway),
		}
		created, err := deps.Ideas.InsertIfAbsent(dbctx.Context{Ctx: ctx}, idea)
		if err != nil {
			out.Failed++
			log.Error("extract_ideas: insert failed", "topic", c.Topic, "error", err)
			continue
		}
		if !created {
			out.Skipped++
			log.Debug("extract_ideas: duplicate skipped", "signature", idea.DedupeSignature)
			continue
		}
		out.Created = append(out.Created, idea)
		out.IdeaIDs = append(out.IdeaIDs, idea.ID)
		if in.OnAccepted != nil {
			in.OnAccepted(ctx, idea)
		}
	}

	// Documents with failed inserts stay pending so the batch retries them.
	if out.Failed == 0 {
		markExtracted(ctx, log, deps.Documents, doc.ID)
	}
	log.Info("extract_ideas: done", "created", len(out.Created), "skipped", out.Skipped, "failed", out.Failed, "candidates", out.Candidates)
	return out, nil
}

func markExtracted(ctx context.Context, log *logger.Logger, docs repos.RawDocumentRepo, id uuid.UUID) {
	if err := docs.MarkExtracted(dbctx.Context{Ctx: ctx}, id, time.Now()); err != nil {
		log.Warn("extract_ideas: mark extracted failed", "error", err)
	}
}

// parseIdeaCandidates accepts a bare array or {"ideas": [...]}; candidates
// without topic or summary are dropped.
func parseIdeaCandidates(raw string) ([]ideaCandidate, error) {
	s := stripCodeFences(raw)
	var list []ideaCandidate

	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		body, ok := sanitizeJSONText(s, '[', ']')
		if !ok {
			return nil, malformed("no JSON array")
		}
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			return nil, malformed("ideas array: %v", err)
		}
	case objStart >= 0:
		body, ok := sanitizeJSONText(s, '{', '}')
		if !ok {
			return nil, malformed("no JSON object")
		}
		var wrapper struct {
			Ideas []ideaCandidate `json:"ideas"`
		}
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, malformed("ideas object: %v", err)
		}
		list = wrapper.Ideas
	default:
		return nil, malformed("no JSON found")
	}

	out := make([]ideaCandidate, 0, len(list))
	for _, c := range list {
		c.Topic = strings.TrimSpace(c.Topic)
		c.Summary = strings.TrimSpace(c.Summary)
		if c.Topic == "" || c.Summary == "" {
			continue
		}
		c.EQ = strings.TrimSpace(c.EQ)
		c.Takeaway = strings.TrimSpace(c.Takeaway)
		c.Bucket = strings.TrimSpace(c.Bucket)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, malformed("no usable idea candidates")
	}
	return out, nil
}

func bucketFor(raw string, allowed []string) string {
	if b := normalizeChoice(raw, allowed); b != "" {
		return b
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
