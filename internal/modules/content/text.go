package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlRE          = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	hashtagRE      = regexp.MustCompile(`(^|\s)#[\p{L}\p{N}_]+`)
	multiSpaceRE   = regexp.MustCompile(`[ \t\f\v]+`)
	blankLinesRE   = regexp.MustCompile(`\n{3,}`)
	sentenceJoinRE = regexp.MustCompile(`[.!?]["')\]]*\s+\S`)
	nonCanonRE     = regexp.MustCompile(`[^\p{L}\p{N}| ]+`)
)

func stripCodeFences(src string) string {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return strings.Trim(s, "`")
	}
	body := lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		body = lines[1 : len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

// sliceBetween keeps the substring from the first open to the last close
// delimiter, inclusive. ok is false when either is missing.
func sliceBetween(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// normalizeWhitespace trims trailing spaces per line and collapses blank runs.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRightFunc(ln, unicode.IsSpace)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// sanitizeJSONText prepares model output for json.Unmarshal: fences removed,
// outer delimiters located, whitespace normalized.
func sanitizeJSONText(raw string, open, close byte) (string, bool) {
	s := stripCodeFences(raw)
	s, ok := sliceBetween(s, open, close)
	if !ok {
		return "", false
	}
	return normalizeWhitespace(s), true
}

func isEmojiRune(r rune) bool {
	switch {
	case r == 0x200D, r == 0xFE0F, r == 0x20E3:
		return true
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	}
	return unicode.Is(unicode.So, r)
}

func stripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		if isEmojiRune(r) {
			return -1
		}
		return r
	}, s)
}

func containsEmoji(s string) bool {
	return strings.IndexFunc(s, isEmojiRune) >= 0
}

func stripHashtags(s string) string {
	return hashtagRE.ReplaceAllString(s, "$1")
}

func containsHashtag(s string) bool {
	return hashtagRE.MatchString(s)
}

// cleanGenerated removes decoration the drafting prompts forbid.
func cleanGenerated(s string) string {
	s = stripEmoji(stripHashtags(s))
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRE.ReplaceAllString(ln, " "))
	}
	return normalizeWhitespace(strings.Join(lines, "\n"))
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func isSingleSentence(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "\n") {
		return false
	}
	return !sentenceJoinRE.MatchString(s)
}

func endsWithTerminal(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '.' || r == '!' || r == '?'
}

// truncateRunes cuts s to at most max runes on a word boundary when one exists.
func truncateRunes(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if max <= 0 || len(r) <= max {
		return string(r)
	}
	cut := r[:max]
	for i := len(cut) - 1; i > max/2; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimSpace(string(cut[:i]))
		}
	}
	return strings.TrimSpace(string(cut))
}

func truncateWords(s string, max int) string {
	f := strings.Fields(s)
	if max <= 0 || len(f) <= max {
		return strings.Join(f, " ")
	}
	return strings.Join(f[:max], " ")
}

func trimQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`“”‘’"))
}

// containsWithin reports whether needle occurs in hay starting at or before
// rune offset window, ignoring case.
func containsWithin(hay, needle string, window int) bool {
	h := strings.ToLower(hay)
	n := strings.ToLower(strings.TrimSpace(needle))
	if n == "" {
		return true
	}
	idx := strings.Index(h, n)
	if idx < 0 {
		return false
	}
	return utf8.RuneCountInString(h[:idx]) <= window
}
