package promptstyle

import "strings"

const marker = "POSTFORGE_PROMPT_STYLE_V1"

// Voice is the owner-specific writing guidance folded into drafting prompts.
type Voice struct {
	Tone          string
	Notes         string
	BannedPhrases []string
}

func (v Voice) empty() bool {
	return strings.TrimSpace(v.Tone) == "" && strings.TrimSpace(v.Notes) == "" && len(v.BannedPhrases) == 0
}

// ApplySystem prepends a short guidance block to a system prompt.
// mode "json" asks for a single JSON object; anything else asks for plain text.
func ApplySystem(system string, mode string, voice Voice) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou write professional social posts in the owner's own voice.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nUse provided inputs as grounding; do not invent facts, numbers or employers.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object with exactly the requested keys and nothing else.")
	} else {
		b.WriteString("\nReturn only the requested text with no preamble or commentary.")
	}
	if !voice.empty() {
		b.WriteString("\nOwner voice:")
		if t := strings.TrimSpace(voice.Tone); t != "" {
			b.WriteString("\n- Tone: " + t)
		}
		if n := strings.TrimSpace(voice.Notes); n != "" {
			b.WriteString("\n- Notes: " + n)
		}
		banned := make([]string, 0, len(voice.BannedPhrases))
		for _, p := range voice.BannedPhrases {
			if p = strings.TrimSpace(p); p != "" {
				banned = append(banned, "\""+p+"\"")
			}
		}
		if len(banned) > 0 {
			b.WriteString("\n- Never use: " + strings.Join(banned, ", "))
		}
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
