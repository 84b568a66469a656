package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type PostDeps struct {
	Log      *logger.Logger
	Ideas    repos.IdeaRepo
	Insights repos.InsightRepo
	Styles   repos.WritingStyleRepo
	Drafts   repos.DraftRepo
	Gen      llm.Generator
	Config   config.Pipeline
}

type PostInput struct {
	DraftID uuid.UUID
	// Insight overrides the lookup of the idea's latest insight.
	Insight *types.Insight
}

type PostOutput struct {
	DraftID      uuid.UUID  `json:"draft_id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	InsightID    *uuid.UUID `json:"insight_id,omitempty"`
	PostText     string     `json:"post_text"`
	TemplateUsed string     `json:"template_used"`
	Gen          string     `json:"gen"`
}

type postResult struct {
	TemplateUsed string `json:"template_used"`
	Hook         string `json:"hook"`
	Post         string `json:"post"`
}

// Appended in order when a fallback body is shorter than the window.
var postClosers = []string{
	"That shift changed how I approach the work.",
	"The lesson holds up well beyond this one case.",
	"Small changes compound faster than most teams expect.",
	"I would make the same call again tomorrow.",
	"What would you have done differently?",
}

// ComposePost expands the draft's hook into a full post and stores it on the
// same draft. The draft always ends up with a post body.
func ComposePost(ctx context.Context, deps PostDeps, in PostInput) (PostOutput, error) {
	out := PostOutput{DraftID: in.DraftID}
	if deps.Log == nil || deps.Ideas == nil || deps.Insights == nil || deps.Styles == nil || deps.Drafts == nil || deps.Gen == nil {
		return out, fmt.Errorf("post: missing deps")
	}
	if in.DraftID == uuid.Nil {
		return out, fmt.Errorf("post: missing draft_id")
	}
	log := deps.Log.With("stage", "post", "draft_id", in.DraftID.String())
	dbc := dbctx.Context{Ctx: ctx}

	draft, err := deps.Drafts.GetByID(dbc, in.DraftID)
	if err != nil {
		return out, fmt.Errorf("post: %w", err)
	}
	idea, err := deps.Ideas.GetByID(dbc, draft.IdeaID)
	if err != nil {
		return out, fmt.Errorf("post: %w", err)
	}
	insight := in.Insight
	if insight == nil {
		if insight, err = deps.Insights.LatestForIdea(dbc, idea.ID); err != nil {
			return out, fmt.Errorf("post: latest insight: %w", err)
		}
	}
	style, err := deps.Styles.GetByOwner(dbc, idea.OwnerID)
	if err != nil {
		log.Warn("post: writing style unavailable", "error", err)
		style = nil
	}

	hook := strings.TrimSpace(draft.HookText)
	cfg := deps.Config.Post
	reqs := buildPostRequests(idea, hook, insight, style, deps.Config)
	res := runContract(ctx, log, deps.Gen, contractCall[postResult]{
		Label:    "post",
		Primary:  reqs.Primary,
		Retry:    reqs.Retry,
		Fallback: reqs.Fallback,
		Parse: func(raw string) (postResult, error) {
			return parsePost(raw, hook, cfg)
		},
		FromText: func(raw string) postResult {
			return postResult{Hook: hook, Post: fallbackPost(raw, hook, idea, insight, cfg)}
		},
	})

	upd := repos.PostUpdate{
		PostText:     res.Value.Post,
		TemplateUsed: res.Value.TemplateUsed,
		PostGen:      res.Gen,
	}
	if insight != nil {
		id := insight.ID
		upd.InsightID = &id
	}
	saved, err := deps.Drafts.AttachPost(dbc, draft.ID, upd)
	if err != nil {
		return out, fmt.Errorf("post: store: %w", err)
	}
	out = PostOutput{
		DraftID:      saved.ID,
		OwnerID:      saved.OwnerID,
		InsightID:    saved.InsightID,
		PostText:     saved.PostText,
		TemplateUsed: saved.TemplateUsed,
		Gen:          res.Gen,
	}
	log.Info("post: draft filled", "gen", res.Gen, "template", saved.TemplateUsed, "chars", utf8.RuneCountInString(saved.PostText))
	return out, nil
}

// parsePost enforces the post contract: a non-empty body that opens with the
// hook, no emoji or hashtags, a known template. The character window is only
// applied to fallback bodies.
func parsePost(raw, hook string, cfg config.PostSpec) (postResult, error) {
	var res postResult
	body, ok := sanitizeJSONText(raw, '{', '}')
	if !ok {
		return res, malformed("no JSON object")
	}
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return res, malformed("post object: %v", err)
	}
	res.Post = normalizeWhitespace(res.Post)
	switch {
	case res.Post == "":
		return res, malformed("empty post")
	case !containsWithin(res.Post, hook, cfg.HookPrefixWindow):
		return res, malformed("post does not open with the hook")
	case containsEmoji(res.Post) || containsHashtag(res.Post):
		return res, malformed("post contains emoji or hashtags")
	case !endsWithTerminal(res.Post):
		return res, malformed("post does not end with a full sentence")
	}
	res.TemplateUsed = normalizeChoice(res.TemplateUsed, cfg.Templates)
	if res.TemplateUsed == "" {
		return res, malformed("unknown template")
	}
	return res, nil
}

// fallbackPost builds a body from free text, or from the idea when the text
// is empty, then makes it open with the hook and fit the character window.
func fallbackPost(raw, hook string, idea *types.Idea, insight *types.Insight, cfg config.PostSpec) string {
	body := cleanGenerated(stripCodeFences(raw))
	if body == "" {
		parts := []string{idea.Summary}
		if insight != nil && insight.InsightType != types.InsightTypeNone {
			parts = append(parts, insight.InsightText)
		}
		parts = append(parts, idea.Takeaway)
		body = joinSentences(parts)
	}
	body = ensureHookPrefix(body, hook, cfg.HookPrefixWindow)
	return enforceLength(body, cfg.MinChars, cfg.MaxChars)
}

func joinSentences(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !endsWithTerminal(p) {
			p += "."
		}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

// ensureHookPrefix prepends hook unless it already starts within window runes.
func ensureHookPrefix(body, hook string, window int) string {
	hook = strings.TrimSpace(hook)
	if hook == "" || containsWithin(body, hook, window) {
		return body
	}
	if body == "" {
		return hook
	}
	return hook + "\n\n" + body
}

// enforceLength pads short text with closing sentences and cuts long text at
// the last sentence end inside [min,max], else the last space. The result is
// within [min,max] runes and ends with . ! or ?.
func enforceLength(text string, min, max int) string {
	text = strings.TrimSpace(text)
	for i := 0; utf8.RuneCountInString(text) < min; i++ {
		text = strings.TrimSpace(text + " " + postClosers[i%len(postClosers)])
	}

	r := []rune(text)
	if len(r) > max {
		r = cutToWindow(r, min, max)
	}
	r = terminate(r, max)
	if n := len(r); n < min || n > max || !endsWithTerminal(string(r)) {
		// Only reachable when trimming a trailing fragment dropped below min.
		padded := []rune(text)
		for i := 0; len(padded) < max; i++ {
			padded = append(padded, []rune(" "+postClosers[i%len(postClosers)])...)
		}
		r = append(padded[:max-1:max-1], '.')
	}
	return string(r)
}

func cutToWindow(r []rune, min, max int) []rune {
	for i := max - 1; i >= min-1 && i >= 0; i-- {
		if r[i] == '.' || r[i] == '!' || r[i] == '?' {
			return r[:i+1]
		}
	}
	for i := max - 1; i >= min && i > 0; i-- {
		if unicode.IsSpace(r[i]) {
			return r[:i]
		}
	}
	return r[:max-1]
}

// terminate makes r end with sentence punctuation without exceeding max.
func terminate(r []rune, max int) []rune {
	s := strings.TrimRightFunc(string(r), func(c rune) bool {
		return unicode.IsSpace(c) || strings.ContainsRune(",;:-\u2013\u2014", c)
	})
	if endsWithTerminal(s) {
		return []rune(s)
	}
	out := []rune(s)
	if len(out) >= max {
		out = []rune(strings.TrimRightFunc(string(out[:max-1]), unicode.IsSpace))
	}
	return append(out, '.')
}
