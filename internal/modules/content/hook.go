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

type HookDeps struct {
	Log      *logger.Logger
	Ideas    repos.IdeaRepo
	Insights repos.InsightRepo
	Styles   repos.WritingStyleRepo
	Drafts   repos.DraftRepo
	Gen      llm.Generator
	Config   config.Pipeline
}

type HookInput struct {
	IdeaID uuid.UUID
	// Insight overrides the lookup of the idea's latest insight.
	Insight *types.Insight
}

type HookOutput struct {
	DraftID uuid.UUID `json:"draft_id"`
	Hook    string    `json:"hook"`
	Style   string    `json:"style"`
	Gen     string    `json:"gen"`
}

type hookResult struct {
	Hook  string `json:"hook"`
	Style string `json:"style"`
	Notes string `json:"notes"`
}

// GenerateHook writes a hook for the idea and stores it on a new draft.
// Generation problems resolve through retry and fallback; only a missing idea
// or a storage failure is returned as an error.
func GenerateHook(ctx context.Context, deps HookDeps, in HookInput) (HookOutput, error) {
	out := HookOutput{}
	if deps.Log == nil || deps.Ideas == nil || deps.Insights == nil || deps.Styles == nil || deps.Drafts == nil || deps.Gen == nil {
		return out, fmt.Errorf("hook: missing deps")
	}
	if in.IdeaID == uuid.Nil {
		return out, fmt.Errorf("hook: missing idea_id")
	}
	log := deps.Log.With("stage", "hook", "idea_id", in.IdeaID.String())
	dbc := dbctx.Context{Ctx: ctx}

	idea, err := deps.Ideas.GetByID(dbc, in.IdeaID)
	if err != nil {
		return out, fmt.Errorf("hook: %w", err)
	}
	insight := in.Insight
	if insight == nil {
		if insight, err = deps.Insights.LatestForIdea(dbc, idea.ID); err != nil {
			return out, fmt.Errorf("hook: latest insight: %w", err)
		}
	}
	style, err := deps.Styles.GetByOwner(dbc, idea.OwnerID)
	if err != nil {
		log.Warn("hook: writing style unavailable", "error", err)
		style = nil
	}

	cfg := deps.Config.Hook
	reqs := buildHookRequests(idea, insight, style, deps.Config)
	res := runContract(ctx, log, deps.Gen, contractCall[hookResult]{
		Label:    "hook",
		Primary:  reqs.Primary,
		Retry:    reqs.Retry,
		Fallback: reqs.Fallback,
		Parse: func(raw string) (hookResult, error) {
			return parseHook(raw, cfg)
		},
		FromText: func(raw string) hookResult {
			return hookResult{Hook: fallbackHook(raw, idea, cfg)}
		},
	})

	draft := &types.Draft{
		OwnerID:   idea.OwnerID,
		IdeaID:    idea.ID,
		HookText:  res.Value.Hook,
		HookStyle: res.Value.Style,
		HookGen:   res.Gen,
		Status:    types.DraftStatusDraft,
	}
	if err := deps.Drafts.Create(dbc, draft); err != nil {
		return out, fmt.Errorf("hook: store draft: %w", err)
	}
	out = HookOutput{DraftID: draft.ID, Hook: draft.HookText, Style: draft.HookStyle, Gen: res.Gen}
	log.Info("hook: draft created", "draft_id", draft.ID.String(), "gen", res.Gen, "style", draft.HookStyle)
	return out, nil
}

// parseHook enforces the hook contract: one sentence, at most MaxWords words,
// no emoji or hashtags.
func parseHook(raw string, cfg config.HookSpec) (hookResult, error) {
	var res hookResult
	body, ok := sanitizeJSONText(raw, '{', '}')
	if !ok {
		return res, malformed("no JSON object")
	}
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return res, malformed("hook object: %v", err)
	}
	res.Hook = trimQuotes(strings.Join(strings.Fields(res.Hook), " "))
	switch {
	case res.Hook == "":
		return res, malformed("empty hook")
	case wordCount(res.Hook) > cfg.MaxWords:
		return res, malformed("hook has %d words", wordCount(res.Hook))
	case !isSingleSentence(res.Hook):
		return res, malformed("hook is not a single sentence")
	case containsEmoji(res.Hook) || containsHashtag(res.Hook):
		return res, malformed("hook contains emoji or hashtags")
	}
	res.Style = normalizeChoice(res.Style, cfg.Styles)
	res.Notes = strings.TrimSpace(res.Notes)
	return res, nil
}

// fallbackHook turns free text into a hook: first line, first sentence,
// decoration stripped, clamped to FallbackMaxChars on a word boundary. It
// falls back to the idea's own fields and is never empty.
func fallbackHook(raw string, idea *types.Idea, cfg config.HookSpec) string {
	for _, candidate := range []string{raw, idea.Topic, idea.Summary, "A lesson worth sharing"} {
		if h := hookFromText(candidate, cfg); h != "" {
			return h
		}
	}
	return "A lesson worth sharing"
}

func hookFromText(raw string, cfg config.HookSpec) string {
	s := cleanGenerated(stripCodeFences(raw))
	for _, line := range strings.Split(s, "\n") {
		line = trimQuotes(strings.TrimLeft(strings.TrimSpace(line), "-*•#> "))
		if line == "" {
			continue
		}
		if loc := sentenceJoinRE.FindStringIndex(line); loc != nil {
			line = line[:loc[0]+1]
		}
		line = truncateWords(line, cfg.MaxWords)
		line = trimQuotes(truncateRunes(line, cfg.FallbackMaxChars))
		if line != "" {
			return line
		}
	}
	return ""
}
