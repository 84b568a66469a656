package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

const pipelineEnv = "CONTENT_PIPELINE_YAML"

// The post char window must hold the word target at this many runes per word.
const minCharsPerWord = 6

const (
	StageInsight = "insight"
	StageHook    = "hook"
	StagePost    = "post"
)

//go:embed pipeline.yaml
var pipelineFS embed.FS

type Pipeline struct {
	Name      string        `yaml:"pipeline"`
	Version   int           `yaml:"version"`
	Stages    []StageSpec   `yaml:"stages"`
	Normalize NormalizeSpec `yaml:"normalize"`
	Extract   ExtractSpec   `yaml:"extract"`
	Retrieval RetrievalSpec `yaml:"retrieval"`
	Insight   InsightSpec   `yaml:"insight"`
	Hook      HookSpec      `yaml:"hook"`
	Post      PostSpec      `yaml:"post"`
}

type StageSpec struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
}

type NormalizeSpec struct {
	SectionMaxChars  int `yaml:"section_max_chars"`
	EmbedBatchSize   int `yaml:"embed_batch_size"`
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

type ExtractSpec struct {
	Temperature float64  `yaml:"temperature"`
	MinIdeas    int      `yaml:"min_ideas"`
	MaxIdeas    int      `yaml:"max_ideas"`
	Buckets     []string `yaml:"buckets"`
}

type RetrievalSpec struct {
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
}

type InsightSpec struct {
	Temperature float64 `yaml:"temperature"`
}

type HookSpec struct {
	Temperature      float64  `yaml:"temperature"`
	MaxWords         int      `yaml:"max_words"`
	FallbackMaxChars int      `yaml:"fallback_max_chars"`
	Styles           []string `yaml:"styles"`
}

type PostSpec struct {
	Temperature      float64  `yaml:"temperature"`
	MinChars         int      `yaml:"min_chars"`
	MaxChars         int      `yaml:"max_chars"`
	TargetWordsMin   int      `yaml:"target_words_min"`
	TargetWordsMax   int      `yaml:"target_words_max"`
	HookPrefixWindow int      `yaml:"hook_prefix_window"`
	Templates        []string `yaml:"templates"`
}

// Default is the compiled-in configuration used when the YAML is missing or invalid.
func Default() Pipeline {
	return Pipeline{
		Name:    "content_build",
		Version: 1,
		Stages:  []StageSpec{{Name: StageInsight}, {Name: StageHook}, {Name: StagePost}},
		Normalize: NormalizeSpec{
			SectionMaxChars:  1200,
			EmbedBatchSize:   64,
			EmbedConcurrency: 4,
		},
		Extract: ExtractSpec{
			Temperature: 0.4,
			MinIdeas:    3,
			MaxIdeas:    4,
			Buckets:     []string{"contrarian", "story", "tactical", "lesson", "behind_the_scenes", "industry_trend"},
		},
		Retrieval: RetrievalSpec{Threshold: 0.7, TopK: 5},
		Insight:   InsightSpec{Temperature: 0.3},
		Hook: HookSpec{
			Temperature:      0.8,
			MaxWords:         15,
			FallbackMaxChars: 120,
			Styles:           []string{"stat_result", "imperative", "question", "contrarian_myth", "listicle", "timeline"},
		},
		Post: PostSpec{
			Temperature:      0.7,
			MinChars:         150,
			MaxChars:         1400,
			TargetWordsMin:   160,
			TargetWordsMax:   180,
			HookPrefixWindow: 40,
			Templates: []string{
				"contrarian_take", "how_to_workflow", "case_study", "long_form_story", "lessons_learned",
				"myth_vs_reality", "before_after", "listicle", "framework_breakdown", "behind_the_scenes",
			},
		},
	}
}

// EnabledStages returns the per-idea stage order with disabled stages removed.
func (p Pipeline) EnabledStages() []string {
	out := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		if s.Enabled != nil && !*s.Enabled {
			continue
		}
		out = append(out, strings.TrimSpace(s.Name))
	}
	return out
}

func (p Pipeline) StageEnabled(name string) bool {
	for _, s := range p.EnabledStages() {
		if s == name {
			return true
		}
	}
	return false
}

var (
	loadOnce sync.Once
	loaded   Pipeline
	loadErr  error
)

// Load reads the pipeline config once per process. Errors are logged and the
// compiled-in default is returned.
func Load(log *logger.Logger) Pipeline {
	loadOnce.Do(func() {
		loaded, loadErr = load()
	})
	if loadErr != nil {
		if log != nil {
			log.Warn("content pipeline: config load failed; using defaults", "error", loadErr)
		}
		return Default()
	}
	return loaded
}

func load() (Pipeline, error) {
	data, err := read()
	if err != nil {
		return Pipeline{}, err
	}
	return Parse(data)
}

func read() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(pipelineEnv)); path != "" {
		return os.ReadFile(path)
	}
	return pipelineFS.ReadFile("pipeline.yaml")
}

// Parse decodes YAML over the defaults, so omitted sections keep their
// compiled-in values, then validates the result.
func Parse(data []byte) (Pipeline, error) {
	p := Default()
	p.Stages = nil
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, err
	}
	if err := Validate(&p); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

var stageRank = map[string]int{StageInsight: 0, StageHook: 1, StagePost: 2}

func Validate(p *Pipeline) error {
	if p == nil {
		return errors.New("missing config")
	}
	if strings.TrimSpace(p.Name) != "content_build" {
		return fmt.Errorf("unexpected pipeline: %s", p.Name)
	}
	if len(p.Stages) == 0 {
		return errors.New("no stages defined")
	}
	seen := map[string]bool{}
	last := -1
	for _, s := range p.Stages {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return errors.New("stage name is required")
		}
		rank, ok := stageRank[name]
		if !ok {
			return fmt.Errorf("unknown stage: %s", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate stage name: %s", name)
		}
		seen[name] = true
		if s.Enabled != nil && !*s.Enabled {
			continue
		}
		if rank < last {
			return fmt.Errorf("stage %s appears out of order", name)
		}
		last = rank
	}
	if p.StageEnabled(StagePost) && !p.StageEnabled(StageHook) {
		return errors.New("stage post requires stage hook")
	}

	if p.Retrieval.Threshold < 0 || p.Retrieval.Threshold > 1 {
		return fmt.Errorf("retrieval.threshold out of range: %v", p.Retrieval.Threshold)
	}
	if p.Retrieval.TopK <= 0 {
		return errors.New("retrieval.top_k must be positive")
	}
	if p.Extract.MinIdeas <= 0 || p.Extract.MaxIdeas < p.Extract.MinIdeas {
		return fmt.Errorf("extract: invalid idea bounds [%d,%d]", p.Extract.MinIdeas, p.Extract.MaxIdeas)
	}
	if p.Hook.MaxWords <= 0 || p.Hook.FallbackMaxChars <= 0 {
		return errors.New("hook: max_words and fallback_max_chars must be positive")
	}
	if len(p.Hook.Styles) == 0 {
		return errors.New("hook: styles required")
	}
	if p.Post.MinChars <= 0 || p.Post.MaxChars <= p.Post.MinChars {
		return fmt.Errorf("post: invalid char window [%d,%d]", p.Post.MinChars, p.Post.MaxChars)
	}
	if p.Post.TargetWordsMin <= 0 || p.Post.TargetWordsMax < p.Post.TargetWordsMin {
		return fmt.Errorf("post: invalid word target [%d,%d]", p.Post.TargetWordsMin, p.Post.TargetWordsMax)
	}
	if p.Post.TargetWordsMax*minCharsPerWord > p.Post.MaxChars {
		return fmt.Errorf("post: word target %d does not fit max_chars %d", p.Post.TargetWordsMax, p.Post.MaxChars)
	}
	if p.Post.HookPrefixWindow <= 0 {
		return errors.New("post: hook_prefix_window must be positive")
	}
	if len(p.Post.Templates) == 0 {
		return errors.New("post: templates required")
	}
	if p.Normalize.SectionMaxChars <= 0 {
		return errors.New("normalize: section_max_chars must be positive")
	}
	if p.Normalize.EmbedBatchSize <= 0 {
		p.Normalize.EmbedBatchSize = 64
	}
	if p.Normalize.EmbedConcurrency <= 0 {
		p.Normalize.EmbedConcurrency = 1
	}
	return nil
}
