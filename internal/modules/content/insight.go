package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type InsightDeps struct {
	Log       *logger.Logger
	Ideas     repos.IdeaRepo
	Documents repos.RawDocumentRepo
	Insights  repos.InsightRepo
	Embed     llm.Embedder
	Gen       llm.Generator
	Index     SectionIndex
	Config    config.Pipeline
}

type InsightInput struct {
	IdeaID uuid.UUID
}

type InsightOutput struct {
	Inserted bool                 `json:"inserted"`
	Insight  *types.Insight       `json:"insight,omitempty"`
	Matches  []types.SectionMatch `json:"matches"`
}

type insightCandidate struct {
	Topic       string `json:"topic"`
	Insight     string `json:"insight"`
	InsightType string `json:"insight_type"`
	ValueAdded  string `json:"value_added"`
}

func isDirectThought(sourceType string) bool {
	switch sourceType {
	case types.SourceDirectThought, types.SourceThought, types.SourceNote:
		return true
	}
	return false
}

// RetrieveInsight grounds one insight for an idea in the owner's sections.
// A missing idea is an error; failed retrieval or generation is not.
func RetrieveInsight(ctx context.Context, deps InsightDeps, in InsightInput) (InsightOutput, error) {
	out := InsightOutput{Matches: []types.SectionMatch{}}
	if deps.Log == nil || deps.Ideas == nil || deps.Documents == nil || deps.Insights == nil || deps.Embed == nil || deps.Gen == nil || deps.Index == nil {
		return out, fmt.Errorf("insight: missing deps")
	}
	if in.IdeaID == uuid.Nil {
		return out, fmt.Errorf("insight: missing idea_id")
	}
	log := deps.Log.With("stage", "insight", "idea_id", in.IdeaID.String())

	idea, err := deps.Ideas.GetByID(dbctx.Context{Ctx: ctx}, in.IdeaID)
	if err != nil {
		return out, fmt.Errorf("insight: %w", err)
	}

	query := strings.TrimSpace(idea.Topic)
	if query == "" {
		query = strings.TrimSpace(idea.Summary)
	}
	if query != "" {
		out.Matches = retrieveSections(ctx, log, deps, idea.OwnerID, query)
	}

	directText := ""
	if idea.RawDocumentID != uuid.Nil {
		doc, err := deps.Documents.GetByID(dbctx.Context{Ctx: ctx}, idea.RawDocumentID)
		switch {
		case err != nil:
			log.Warn("insight: source document unavailable", "error", err)
		case isDirectThought(doc.SourceType):
			directText = strings.TrimSpace(doc.Content)
		}
	}

	raw, err := deps.Gen.Generate(ctx, insightRequest(idea, out.Matches, directText, deps.Config))
	if err != nil {
		log.Warn("insight: generation failed", "error", err)
		return out, nil
	}
	cand, err := parseInsight(raw)
	if err != nil {
		log.Warn("insight: unparseable output", "error", err)
		return out, nil
	}

	row := &types.Insight{
		OwnerID:     idea.OwnerID,
		IdeaID:      idea.ID,
		Topic:       firstNonEmpty(cand.Topic, idea.Topic),
		InsightText: cand.Insight,
		InsightType: strings.ToLower(strings.TrimSpace(cand.InsightType)),
		ValueAdded:  cand.ValueAdded,
		Status:      types.InsightStatusDraft,
	}
	if strings.Contains(strings.ToLower(cand.Insight), strings.ToLower(noRAGInsight)) {
		row.InsightText = noRAGInsight
		row.InsightType = types.InsightTypeNone
	}
	if err := deps.Insights.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return out, fmt.Errorf("insight: store: %w", err)
	}
	out.Inserted = true
	out.Insight = row
	log.Info("insight: stored", "insight_id", row.ID.String(), "insight_type", row.InsightType, "matches", len(out.Matches))
	return out, nil
}

func retrieveSections(ctx context.Context, log *logger.Logger, deps InsightDeps, ownerID uuid.UUID, query string) []types.SectionMatch {
	vecs, err := deps.Embed.Embed(ctx, []string{query})
	if err != nil || len(vecs) != 1 || len(vecs[0]) == 0 {
		log.Warn("insight: query embedding failed; continuing without context", "error", err)
		return []types.SectionMatch{}
	}
	matches, err := deps.Index.Search(ctx, ownerID, vecs[0], deps.Config.Retrieval.Threshold, deps.Config.Retrieval.TopK)
	if err != nil {
		log.Warn("insight: similarity search failed; continuing without context", "error", err)
		return []types.SectionMatch{}
	}
	kept := make([]types.SectionMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= deps.Config.Retrieval.Threshold {
			kept = append(kept, m)
		}
	}
	return kept
}

// parseInsight takes the first element of a JSON array, or a lone object.
// A bare "no clear RAG insight" answer is accepted as a none-type insight.
func parseInsight(raw string) (insightCandidate, error) {
	s := stripCodeFences(raw)
	var cand insightCandidate

	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		body, ok := sanitizeJSONText(s, '[', ']')
		if !ok {
			return cand, malformed("no JSON array")
		}
		var list []insightCandidate
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			return cand, malformed("insight array: %v", err)
		}
		if len(list) == 0 {
			return cand, malformed("empty insight array")
		}
		cand = list[0]
	case objStart >= 0:
		body, ok := sanitizeJSONText(s, '{', '}')
		if !ok {
			return cand, malformed("no JSON object")
		}
		if err := json.Unmarshal([]byte(body), &cand); err != nil {
			return cand, malformed("insight object: %v", err)
		}
	default:
		if strings.Contains(strings.ToLower(s), strings.ToLower(noRAGInsight)) {
			return insightCandidate{Insight: noRAGInsight, InsightType: types.InsightTypeNone}, nil
		}
		return cand, malformed("no JSON found")
	}

	cand.Topic = strings.TrimSpace(cand.Topic)
	cand.Insight = strings.TrimSpace(cand.Insight)
	cand.ValueAdded = strings.TrimSpace(cand.ValueAdded)
	if cand.Insight == "" {
		return cand, malformed("insight text missing")
	}
	return cand, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
