package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
)

type profileExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
}

type profileEducation struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Field  string `json:"field"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type profilePayload struct {
	Headline       string              `json:"headline"`
	Summary        string              `json:"summary"`
	Experience     []profileExperience `json:"experience"`
	Education      []profileEducation  `json:"education"`
	Skills         []string            `json:"skills"`
	Certifications []string            `json:"certifications"`
	Languages      []string            `json:"languages"`
}

func (p profilePayload) empty() bool {
	return strings.TrimSpace(p.Headline) == "" && strings.TrimSpace(p.Summary) == "" &&
		len(p.Experience) == 0 && len(p.Education) == 0 && len(p.Skills) == 0 &&
		len(p.Certifications) == 0 && len(p.Languages) == 0
}

// profileFromDocument reads metadata.profile, or the content itself for
// profile_data documents whose body is a JSON object.
func profileFromDocument(doc *types.RawDocument) (profilePayload, bool) {
	if p, ok := profileFromMetadata(doc.Metadata); ok {
		return p, true
	}
	if doc.SourceType != types.SourceProfileData {
		return profilePayload{}, false
	}
	body := strings.TrimSpace(doc.Content)
	if !strings.HasPrefix(body, "{") {
		return profilePayload{}, false
	}
	var p profilePayload
	if err := json.Unmarshal([]byte(body), &p); err != nil || p.empty() {
		return profilePayload{}, false
	}
	return p, true
}

func profileFromMetadata(raw datatypes.JSON) (profilePayload, bool) {
	if len(raw) == 0 {
		return profilePayload{}, false
	}
	var wrapper struct {
		Profile *profilePayload `json:"profile"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Profile == nil || wrapper.Profile.empty() {
		return profilePayload{}, false
	}
	return *wrapper.Profile, true
}

func dateSpan(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return fmt.Sprintf(" (%s - present)", start)
	case start == "":
		return fmt.Sprintf(" (until %s)", end)
	}
	return fmt.Sprintf(" (%s - %s)", start, end)
}

func joinNonEmpty(in []string, sep string) string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}

// flattenProfile renders the profile as labelled blocks in a fixed order:
// headline, summary, experience, education, skills, certifications, languages.
func flattenProfile(p profilePayload) []string {
	var blocks []string
	if h := strings.TrimSpace(p.Headline); h != "" {
		blocks = append(blocks, "Headline: "+h)
	}
	if s := strings.TrimSpace(p.Summary); s != "" {
		blocks = append(blocks, "Summary: "+s)
	}
	for _, e := range p.Experience {
		role := joinNonEmpty([]string{e.Title, e.Company}, " at ")
		if role == "" && strings.TrimSpace(e.Description) == "" {
			continue
		}
		line := "Experience: " + role + dateSpan(e.Start, e.End)
		if d := strings.TrimSpace(e.Description); d != "" {
			line += ". " + d
		}
		blocks = append(blocks, strings.TrimSpace(line))
	}
	for _, e := range p.Education {
		what := joinNonEmpty([]string{e.Degree, e.Field}, ", ")
		line := joinNonEmpty([]string{what, e.School}, " at ")
		if line == "" {
			continue
		}
		blocks = append(blocks, "Education: "+line+dateSpan(e.Start, e.End))
	}
	if s := joinNonEmpty(p.Skills, ", "); s != "" {
		blocks = append(blocks, "Skills: "+s)
	}
	if s := joinNonEmpty(p.Certifications, ", "); s != "" {
		blocks = append(blocks, "Certifications: "+s)
	}
	if s := joinNonEmpty(p.Languages, ", "); s != "" {
		blocks = append(blocks, "Languages: "+s)
	}
	return blocks
}
