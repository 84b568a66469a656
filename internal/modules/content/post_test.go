package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
)

func TestEnforceLengthWindow(t *testing.T) {
	const min, max = 150, 800
	inputs := map[string]string{
		"short":          "Hook line.",
		"no terminal":    strings.Repeat("word ", 50),
		"long sentences": strings.Repeat("This sentence is part of a long post. ", 40),
		"long no punct":  strings.Repeat("wordy ", 200),
		"one huge word":  strings.Repeat("x", 2000),
		"trailing comma": strings.Repeat("a b c, ", 30) + ",",
		"empty":          "",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got := enforceLength(in, min, max)
			n := utf8.RuneCountInString(got)
			if n < min || n > max {
				t.Fatalf("length %d outside [%d,%d]: %q", n, min, max, got)
			}
			if !endsWithTerminal(got) {
				t.Fatalf("missing terminal punctuation: %q", got[len(got)-10:])
			}
		})
	}
}

func TestEnforceLengthCutsAtSentence(t *testing.T) {
	in := strings.Repeat("Alpha beta gamma delta. ", 50)
	got := enforceLength(in, 150, 800)
	if !strings.HasSuffix(got, "delta.") {
		t.Fatalf("expected a sentence cut, got suffix %q", got[len(got)-12:])
	}
}

func TestEnsureHookPrefix(t *testing.T) {
	hook := "Churn fell when we cut onboarding."
	if got := ensureHookPrefix(hook+" More text.", hook, 40); got != hook+" More text." {
		t.Fatalf("hook already present should be untouched, got=%q", got)
	}
	got := ensureHookPrefix("A long preamble that does not mention anything useful at all. "+hook, hook, 40)
	if !strings.HasPrefix(got, hook+"\n\n") {
		t.Fatalf("hook should be prepended, got=%q", got)
	}
}

func TestFallbackPostInvariants(t *testing.T) {
	cfg := config.Default().Post
	hook := "Churn fell when we cut onboarding."
	idea := &types.Idea{Summary: "We simplified onboarding.", Takeaway: "Fewer steps keep users."}
	insight := &types.Insight{InsightText: "Activation doubled.", InsightType: "stat"}

	for name, raw := range map[string]string{
		"empty":     "",
		"decorated": "So proud of the team \U0001F389 #growth\n\nWe did a thing.",
		"long":      strings.Repeat("Another sentence about the launch. ", 60),
		"has hook":  hook + " And more.",
	} {
		t.Run(name, func(t *testing.T) {
			got := fallbackPost(raw, hook, idea, insight, cfg)
			n := utf8.RuneCountInString(got)
			if n < cfg.MinChars || n > cfg.MaxChars || !endsWithTerminal(got) {
				t.Fatalf("window/terminal violated (%d): %q", n, got)
			}
			if !containsWithin(got, hook, cfg.HookPrefixWindow) {
				t.Fatalf("hook missing from opening: %q", got)
			}
			if containsEmoji(got) || containsHashtag(got) {
				t.Fatalf("decoration left: %q", got)
			}
		})
	}
}

func TestParsePostContract(t *testing.T) {
	cfg := config.Default().Post
	hook := "Churn dropped 20% when we deleted half our onboarding."
	good, _ := happyPost(llm.Request{User: "HOOK: " + hook + "\n"})
	res, err := parsePost(good, hook, cfg)
	if err != nil {
		t.Fatalf("parsePost: %v", err)
	}
	if res.TemplateUsed != "case_study" {
		t.Fatalf("template: %q", res.TemplateUsed)
	}

	bad := map[string]string{
		"empty":    `{"template_used":"case_study","hook":"h","post":"  "}`,
		"no hook":  `{"template_used":"case_study","post":"` + strings.Repeat("Body sentence here. ", 10) + `"}`,
		"template": strings.Replace(good, "Case Study", "Haiku", 1),
		"not json": "Here is your post!",
	}
	for name, raw := range bad {
		if _, err := parsePost(raw, hook, cfg); !errors.Is(err, apierr.ErrMalformedOutput) {
			t.Errorf("%s: want ErrMalformedOutput, got=%v", name, err)
		}
	}
}

// targetPost returns a JSON post of n words opening with hook.
func targetPost(hook string, n int) string {
	filler := strings.Fields("we cut the onboarding flow from seven steps to three and churn fell within a quarter because every extra screen is a reason to leave")
	words := strings.Fields(hook)
	for i := 0; len(words) < n-1; i++ {
		words = append(words, filler[i%len(filler)])
	}
	words = append(words, "today.")
	return `{"template_used":"case_study","hook":"` + hook + `","post":"` + strings.Join(words, " ") + `"}`
}

func TestParsePostAcceptsWordTarget(t *testing.T) {
	cfg := config.Default().Post
	hook := "Churn dropped 20% when we deleted half our onboarding."
	for _, n := range []int{cfg.TargetWordsMin, 170, cfg.TargetWordsMax} {
		res, err := parsePost(targetPost(hook, n), hook, cfg)
		if err != nil {
			t.Fatalf("%d words: %v", n, err)
		}
		if got := wordCount(res.Post); got != n {
			t.Fatalf("word count: want=%d got=%d", n, got)
		}
		if chars := utf8.RuneCountInString(res.Post); chars > cfg.MaxChars {
			t.Fatalf("%d words (%d chars) would not fit the fallback window %d", n, chars, cfg.MaxChars)
		}
	}
}

func TestComposePostWordTargetParsesFirstTry(t *testing.T) {
	hook := "Churn fell when we cut onboarding."
	calls := 0
	gen := (&fakeGen{}).
		on(markPost, func(llm.Request) (string, error) {
			calls++
			return targetPost(hook, 170), nil
		}).
		on(markPostRetry, failing()).
		on(markPostFallback, failing())
	e := newEnv(t, gen)
	owner := uuid.New()
	idea := e.idea(owner, e.doc(owner, types.SourceNote, "x"), "Onboarding", "Fewer steps keep users.")
	insight := &types.Insight{OwnerID: owner, IdeaID: idea.ID, InsightText: "Activation doubled after the cut.", InsightType: "stat"}
	if err := e.insights.Create(e.dbc(), insight); err != nil {
		t.Fatalf("Create insight: %v", err)
	}
	draft := &types.Draft{OwnerID: owner, IdeaID: idea.ID, HookText: hook}
	if err := e.drafts.Create(e.dbc(), draft); err != nil {
		t.Fatalf("Create draft: %v", err)
	}

	out, err := ComposePost(context.Background(), PostDeps{
		Log: e.deps.Log, Ideas: e.ideas, Insights: e.insights, Styles: e.styles, Drafts: e.drafts, Gen: gen, Config: e.deps.Config,
	}, PostInput{DraftID: draft.ID, Insight: insight})
	if err != nil {
		t.Fatalf("ComposePost: %v", err)
	}
	if out.Gen != types.GenParsed || calls != 1 {
		t.Fatalf("gen=%s primary calls=%d", out.Gen, calls)
	}
	if out.TemplateUsed != "case_study" || wordCount(out.PostText) != 170 {
		t.Fatalf("unexpected post: template=%q words=%d", out.TemplateUsed, wordCount(out.PostText))
	}
}

func TestComposePostFallbackFillsDraft(t *testing.T) {
	gen := (&fakeGen{}).
		on(markPost, reply("not json")).
		on(markPostRetry, reply(`{"post": "too short"}`)).
		on(markPostFallback, failing())
	e := newEnv(t, gen)
	owner := uuid.New()
	idea := e.idea(owner, e.doc(owner, types.SourceNote, "x"), "Onboarding", "Fewer steps keep users.")
	insight := &types.Insight{OwnerID: owner, IdeaID: idea.ID, InsightText: "Activation doubled after the cut.", InsightType: "stat"}
	if err := e.insights.Create(e.dbc(), insight); err != nil {
		t.Fatalf("Create insight: %v", err)
	}
	draft := &types.Draft{OwnerID: owner, IdeaID: idea.ID, HookText: "Churn fell when we cut onboarding."}
	if err := e.drafts.Create(e.dbc(), draft); err != nil {
		t.Fatalf("Create draft: %v", err)
	}

	out, err := ComposePost(context.Background(), PostDeps{
		Log: e.deps.Log, Ideas: e.ideas, Insights: e.insights, Styles: e.styles, Drafts: e.drafts, Gen: gen, Config: e.deps.Config,
	}, PostInput{DraftID: draft.ID})
	if err != nil {
		t.Fatalf("ComposePost: %v", err)
	}
	if out.Gen != types.GenFallback {
		t.Fatalf("gen: %s", out.Gen)
	}
	saved, err := e.drafts.GetByID(e.dbc(), draft.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	cfg := e.deps.Config.Post
	n := utf8.RuneCountInString(saved.PostText)
	if n < cfg.MinChars || n > cfg.MaxChars || !strings.HasPrefix(saved.PostText, draft.HookText) {
		t.Fatalf("fallback post invalid (%d): %q", n, saved.PostText)
	}
	if saved.InsightID == nil || *saved.InsightID != insight.ID || saved.Status != types.DraftStatusDraft {
		t.Fatalf("draft not filled: %#v", saved)
	}
	if saved.HookText != draft.HookText {
		t.Fatalf("hook changed: %q", saved.HookText)
	}
}

func TestComposePostMissingDraft(t *testing.T) {
	e := newEnv(t, &fakeGen{})
	_, err := ComposePost(context.Background(), PostDeps{
		Log: e.deps.Log, Ideas: e.ideas, Insights: e.insights, Styles: e.styles, Drafts: e.drafts, Gen: &fakeGen{}, Config: e.deps.Config,
	}, PostInput{DraftID: uuid.New()})
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got=%v", err)
	}
}
