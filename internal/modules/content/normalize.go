package content

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

type NormalizeDeps struct {
	Log      *logger.Logger
	Sections repos.SectionRepo
	Embed    llm.Embedder
	Index    SectionIndex
	Config   config.Pipeline
}

type NormalizeInput struct {
	Document *types.RawDocument
}

type NormalizeOutput struct {
	SectionsCreated int         `json:"sections_created"`
	SectionIDs      []uuid.UUID `json:"section_ids,omitempty"`
}

var (
	htmlConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	strictPolicy = bluemonday.StrictPolicy()

	htmlTagRE    = regexp.MustCompile(`(?i)<(?:html|body|p|div|br|span|a|ul|ol|li|h[1-6]|table|article|section)\b`)
	mdImageRE    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLinkRE     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdEmphasisRE = regexp.MustCompile(`(\*\*|__|~~|` + "`" + `)`)
	mdHeadingRE  = regexp.MustCompile(`^#{1,6}\s+`)
	mdRuleRE     = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,}|\|?[\s:|-]+\|[\s:|-]*)$`)
	bulletRE     = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
)

const headingMaxChars = 80

type segment struct {
	kind string
	text string
}

// NormalizeDocument cleans a document, packs it into typed sections, embeds
// them and stores them for the owner. Empty cleaned text creates nothing.
func NormalizeDocument(ctx context.Context, deps NormalizeDeps, in NormalizeInput) (NormalizeOutput, error) {
	out := NormalizeOutput{}
	if deps.Log == nil || deps.Sections == nil || deps.Embed == nil || deps.Index == nil {
		return out, fmt.Errorf("normalize: missing deps")
	}
	doc := in.Document
	if doc == nil || doc.ID == uuid.Nil {
		return out, fmt.Errorf("normalize: missing document")
	}
	log := deps.Log.With("stage", "normalize", "raw_document_id", doc.ID.String())

	segs := segmentDocument(doc)
	texts := packSegments(segs, deps.Config.Normalize.SectionMaxChars)
	if len(texts) == 0 {
		log.Debug("normalize: no content after cleaning")
		return out, nil
	}

	contents := make([]string, len(texts))
	for i, s := range texts {
		contents[i] = s.text
	}
	vectors, err := embedAll(ctx, deps.Embed, contents, deps.Config.Normalize.EmbedBatchSize, deps.Config.Normalize.EmbedConcurrency)
	if err != nil {
		return out, fmt.Errorf("normalize: embed: %w", err)
	}

	docID := doc.ID
	rows := make([]*types.Section, len(texts))
	for i, s := range texts {
		rows[i] = &types.Section{
			OwnerID:       doc.OwnerID,
			RawDocumentID: &docID,
			Index:         i,
			SectionType:   s.kind,
			Content:       s.text,
			Embedding:     repos.EncodeEmbedding(vectors[i]),
		}
	}
	if err := deps.Sections.CreateBatch(dbctx.Context{Ctx: ctx}, rows); err != nil {
		return out, fmt.Errorf("normalize: store sections: %w", err)
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	if err := deps.Index.Index(ctx, rows, vectors); err != nil {
		// Undo both sides so the document is normalized again from scratch.
		if rerr := deps.Index.Remove(ctx, ids); rerr != nil {
			log.Warn("normalize: index rollback failed", "error", rerr)
		}
		if derr := deps.Sections.DeleteByIDs(dbctx.Context{Ctx: ctx}, ids); derr != nil {
			log.Warn("normalize: section rollback failed", "error", derr)
		}
		return out, fmt.Errorf("normalize: index sections: %w", err)
	}

	out.SectionsCreated = len(rows)
	out.SectionIDs = ids
	log.Info("normalize: sections stored", "sections", len(rows))
	return out, nil
}

func embedAll(ctx context.Context, emb llm.Embedder, texts []string, batchSize, concurrency int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 64
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			got, err := emb.Embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(got) != end-start {
				return fmt.Errorf("embedding count mismatch: want=%d got=%d", end-start, len(got))
			}
			copy(vectors[start:end], got)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// segmentDocument flattens structured payloads first, then cleans the body
// and classifies each remaining line.
func segmentDocument(doc *types.RawDocument) []segment {
	var segs []segment
	profile, isProfile := profileFromDocument(doc)
	if isProfile {
		for _, block := range flattenProfile(profile) {
			if t := cleanText(block); t != "" {
				segs = append(segs, segment{kind: types.SectionProfileBlock, text: strings.Join(strings.Fields(t), " ")})
			}
		}
		// The JSON body has been consumed by the flattening above.
		if doc.SourceType == types.SourceProfileData && strings.HasPrefix(strings.TrimSpace(doc.Content), "{") {
			return segs
		}
	}

	body := doc.Content
	if doc.SourceType == types.SourceWebContent || htmlTagRE.MatchString(body) {
		body = htmlToText(body)
	}
	for _, line := range strings.Split(cleanText(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || mdRuleRE.MatchString(line) {
			continue
		}
		segs = append(segs, classifyLine(line))
	}
	return segs
}

func htmlToText(src string) string {
	md, err := htmlConverter.ConvertString(src)
	if err != nil || strings.TrimSpace(md) == "" {
		md = src
	}
	md = html.UnescapeString(strictPolicy.Sanitize(md))
	md = mdImageRE.ReplaceAllString(md, "$1")
	md = mdLinkRE.ReplaceAllString(md, "$1")
	md = mdEmphasisRE.ReplaceAllString(md, "")
	return md
}

// cleanText drops URLs and carriage returns, turns tabs into spaces and
// collapses runs of spaces and blank lines.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = urlRE.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRE.ReplaceAllString(ln, " "))
	}
	return normalizeWhitespace(strings.Join(lines, "\n"))
}

func classifyLine(line string) segment {
	if mdHeadingRE.MatchString(line) {
		return segment{kind: types.SectionHeading, text: strings.TrimSpace(mdHeadingRE.ReplaceAllString(line, ""))}
	}
	if bulletRE.MatchString(line) {
		return segment{kind: types.SectionBullet, text: line}
	}
	if utf8.RuneCountInString(line) <= headingMaxChars && wordCount(line) <= 10 && !endsWithSentencePunct(line) {
		return segment{kind: types.SectionHeading, text: line}
	}
	return segment{kind: types.SectionParagraph, text: line}
}

func endsWithSentencePunct(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(strings.TrimSpace(s))
	switch r {
	case '.', '!', '?', ':', ';', ',', '"', ')':
		return true
	}
	return false
}

// packSegments groups consecutive lines of one kind into sections of at most
// max runes without splitting a line (lines longer than max are split first).
// Profile blocks always stand alone. A heading opens a new section.
func packSegments(segs []segment, max int) []segment {
	if max <= 0 {
		max = 1200
	}
	var out []segment
	var cur []segment
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		lines := make([]string, len(cur))
		for i, s := range cur {
			lines[i] = s.text
		}
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if text != "" {
			out = append(out, segment{kind: packedKind(cur), text: text})
		}
		cur, curLen = nil, 0
	}

	for _, seg := range segs {
		for _, piece := range splitLong(seg.text, max) {
			s := segment{kind: seg.kind, text: piece}
			n := utf8.RuneCountInString(piece)
			switch {
			case s.kind == types.SectionProfileBlock:
				flush()
				out = append(out, s)
				continue
			case s.kind == types.SectionHeading && hasBody(cur):
				flush()
			case hasBody(cur) && packedKind(cur) != s.kind:
				flush()
			case len(cur) > 0 && curLen+1+n > max:
				flush()
			}
			if len(cur) > 0 {
				curLen++
			}
			cur = append(cur, s)
			curLen += n
		}
	}
	flush()
	return out
}

func hasBody(cur []segment) bool {
	for _, s := range cur {
		if s.kind != types.SectionHeading {
			return true
		}
	}
	return false
}

func packedKind(cur []segment) string {
	kind := ""
	for _, s := range cur {
		if s.kind == types.SectionHeading {
			continue
		}
		if kind == "" {
			kind = s.kind
		} else if kind != s.kind {
			return types.SectionParagraph
		}
	}
	if kind == "" {
		return types.SectionHeading
	}
	return kind
}

// splitLong cuts text longer than max runes at sentence ends, or word
// boundaries when a sentence is itself too long.
func splitLong(text string, max int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	var out []string
	rest := []rune(text)
	for len(rest) > max {
		cut := -1
		for i := max - 1; i > max/3; i-- {
			if (rest[i] == '.' || rest[i] == '!' || rest[i] == '?') && i+1 < len(rest) && rest[i+1] == ' ' {
				cut = i + 1
				break
			}
		}
		if cut < 0 {
			for i := max - 1; i > 0; i-- {
				if rest[i] == ' ' {
					cut = i
					break
				}
			}
		}
		if cut <= 0 {
			cut = max
		}
		if piece := strings.TrimSpace(string(rest[:cut])); piece != "" {
			out = append(out, piece)
		}
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	if piece := strings.TrimSpace(string(rest)); piece != "" {
		out = append(out, piece)
	}
	return out
}
