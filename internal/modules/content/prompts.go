package content

import (
	"fmt"
	"strings"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/promptstyle"
)

const noRAGInsight = "no clear RAG insight"

const maxSamplePosts = 2

func voiceFromStyle(ws *types.WritingStyle) promptstyle.Voice {
	if ws == nil {
		return promptstyle.Voice{}
	}
	return promptstyle.Voice{
		Tone:          ws.Tone,
		Notes:         ws.VoiceNotes,
		BannedPhrases: []string(ws.BannedPhrases),
	}
}

func writeSamples(b *strings.Builder, ws *types.WritingStyle) {
	if ws == nil || len(ws.SamplePosts) == 0 {
		return
	}
	b.WriteString("\nPAST POSTS BY THE OWNER (match voice, do not copy):\n")
	n := 0
	for _, sp := range ws.SamplePosts {
		sp = strings.TrimSpace(sp)
		if sp == "" {
			continue
		}
		fmt.Fprintf(b, "---\n%s\n", truncateRunes(sp, 600))
		n++
		if n >= maxSamplePosts {
			break
		}
	}
}

func writeIdea(b *strings.Builder, idea *types.Idea) {
	fmt.Fprintf(b, "TOPIC: %s\n", strings.TrimSpace(idea.Topic))
	fmt.Fprintf(b, "SUMMARY: %s\n", strings.TrimSpace(idea.Summary))
	if eq := strings.TrimSpace(idea.EQ); eq != "" {
		fmt.Fprintf(b, "EMOTIONAL ANGLE: %s\n", eq)
	}
	if tk := strings.TrimSpace(idea.Takeaway); tk != "" {
		fmt.Fprintf(b, "TAKEAWAY: %s\n", tk)
	}
}

func writeInsight(b *strings.Builder, in *types.Insight) {
	if in == nil || in.InsightType == types.InsightTypeNone || strings.TrimSpace(in.InsightText) == "" {
		b.WriteString("INSIGHT: (none)\n")
		return
	}
	fmt.Fprintf(b, "INSIGHT: %s\n", strings.TrimSpace(in.InsightText))
	if va := strings.TrimSpace(in.ValueAdded); va != "" {
		fmt.Fprintf(b, "WHY IT MATTERS: %s\n", va)
	}
}

func extractRequest(doc *types.RawDocument, cfg config.Pipeline) llm.Request {
	system := promptstyle.ApplySystem(fmt.Sprintf(`You are a content strategist mining an owner's material for social post ideas.
Read the ENTIRE document carefully. Do not skim for keywords.
Return %d to %d distinct ideas that span different buckets (%s).
Each idea has: topic (short), summary (2-3 sentences grounded in the document),
eq (the emotional angle), takeaway (the one lesson a reader keeps), bucket.
Output JSON: {"ideas":[{"topic":"","summary":"","eq":"","takeaway":"","bucket":""}]}`,
		cfg.Extract.MinIdeas, cfg.Extract.MaxIdeas, strings.Join(cfg.Extract.Buckets, ", ")), "json", promptstyle.Voice{})

	var b strings.Builder
	if t := strings.TrimSpace(doc.Title); t != "" {
		fmt.Fprintf(&b, "TITLE: %s\n", t)
	}
	fmt.Fprintf(&b, "SOURCE: %s\n", doc.SourceType)
	b.WriteString("DOCUMENT:\n")
	b.WriteString(strings.TrimSpace(doc.Content))
	return llm.Request{
		System:      system,
		User:        b.String(),
		Temperature: llm.Temperature(cfg.Extract.Temperature),
		JSON:        true,
	}
}

func insightRequest(idea *types.Idea, matches []types.SectionMatch, directText string, cfg config.Pipeline) llm.Request {
	system := fmt.Sprintf(`You enrich a social post idea with ONE insight drawn from the owner's own material.
Use only the CONTEXT provided. If the context does not support a useful insight, set "insight" to "%s".
Never invent facts.
Return exactly one element in a JSON array:
[{"topic":"","insight":"","insight_type":"stat|example|story|framework|%s","value_added":""}]`, noRAGInsight, types.InsightTypeNone)

	var b strings.Builder
	writeIdea(&b, idea)
	b.WriteString("\nCONTEXT:\n")
	if len(matches) == 0 {
		b.WriteString("(no matching sections)\n")
	}
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] (%s, score %.2f) %s\n", i+1, m.SectionType, m.Score, strings.TrimSpace(m.Content))
	}
	if directText != "" {
		b.WriteString("\nORIGINAL THOUGHT (verbatim):\n")
		b.WriteString(directText)
		b.WriteString("\n")
	}
	return llm.Request{
		System:      system,
		User:        b.String(),
		Temperature: llm.Temperature(cfg.Insight.Temperature),
	}
}

type hookRequests struct {
	Primary, Retry, Fallback llm.Request
}

func buildHookRequests(idea *types.Idea, insight *types.Insight, ws *types.WritingStyle, cfg config.Pipeline) hookRequests {
	voice := voiceFromStyle(ws)
	styles := strings.Join(cfg.Hook.Styles, ", ")
	system := promptstyle.ApplySystem(fmt.Sprintf(`Write exactly ONE opening hook for a professional social post.
Rules: one sentence, at most %d words, no emoji, no hashtags, no quotes around it.
Pick a style from: %s.
Output JSON: {"hook":"","style":"","notes":""}`, cfg.Hook.MaxWords, styles), "json", voice)

	var b strings.Builder
	writeIdea(&b, idea)
	writeInsight(&b, insight)
	writeSamples(&b, ws)
	user := b.String()
	temp := llm.Temperature(cfg.Hook.Temperature)

	retrySystem := promptstyle.ApplySystem(fmt.Sprintf(`Return ONLY valid JSON in this exact shape: {"hook":"","style":"","notes":""}.
"hook" is one sentence of at most %d words with no emoji or hashtags. "style" is one of: %s.`, cfg.Hook.MaxWords, styles), "json", voice)

	fallbackSystem := promptstyle.ApplySystem(fmt.Sprintf(`Write one short opening line (under %d words) for a social post about the topic below.
No emoji, no hashtags.`, cfg.Hook.MaxWords), "text", voice)

	return hookRequests{
		Primary:  llm.Request{System: system, User: user, Temperature: temp},
		Retry:    llm.Request{System: retrySystem, User: user, Temperature: llm.Temperature(0)},
		Fallback: llm.Request{System: fallbackSystem, User: user, Temperature: temp},
	}
}

type postRequests struct {
	Primary, Retry, Fallback llm.Request
}

func buildPostRequests(idea *types.Idea, hook string, insight *types.Insight, ws *types.WritingStyle, cfg config.Pipeline) postRequests {
	voice := voiceFromStyle(ws)
	templates := strings.Join(cfg.Post.Templates, ", ")
	system := promptstyle.ApplySystem(fmt.Sprintf(`Expand the hook into a full professional social post.
Choose exactly ONE structure that best fits the idea: %s.
The post must start with the hook verbatim and be %d-%d words.
No emoji, no hashtags. End with a complete sentence.
Output JSON: {"template_used":"","hook":"","post":""}`,
		templates, cfg.Post.TargetWordsMin, cfg.Post.TargetWordsMax), "json", voice)

	var b strings.Builder
	fmt.Fprintf(&b, "HOOK: %s\n", hook)
	writeIdea(&b, idea)
	writeInsight(&b, insight)
	writeSamples(&b, ws)
	user := b.String()
	temp := llm.Temperature(cfg.Post.Temperature)

	retrySystem := promptstyle.ApplySystem(fmt.Sprintf(`Return ONLY valid JSON in this exact shape: {"template_used":"","hook":"","post":""}.
"template_used" is one of: %s. "post" starts with the hook and is %d to %d words.`,
		templates, cfg.Post.TargetWordsMin, cfg.Post.TargetWordsMax), "json", voice)

	fallbackSystem := promptstyle.ApplySystem(fmt.Sprintf(`Write a professional social post of about %d words that opens with the hook below.
Plain text only. No emoji, no hashtags.`, cfg.Post.TargetWordsMin), "text", voice)

	return postRequests{
		Primary:  llm.Request{System: system, User: user, Temperature: temp},
		Retry:    llm.Request{System: retrySystem, User: user, Temperature: llm.Temperature(0)},
		Fallback: llm.Request{System: fallbackSystem, User: user, Temperature: temp},
	}
}
