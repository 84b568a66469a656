package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
)

func TestParseHookContract(t *testing.T) {
	cfg := config.Default().Hook
	got, err := parseHook("```json\n"+happyHook+"\n```", cfg)
	if err != nil {
		t.Fatalf("parseHook: %v", err)
	}
	if got.Style != "stat_result" || !strings.HasPrefix(got.Hook, "Churn dropped") {
		t.Fatalf("parsed: %#v", got)
	}

	bad := map[string]string{
		"not json":    "Churn dropped 20%.",
		"empty":       `{"hook":"","style":"question"}`,
		"too long":    `{"hook":"` + strings.Repeat("word ", 16) + `","style":"question"}`,
		"two":         `{"hook":"We shipped. Churn fell.","style":"stat"}`,
		"hashtag":     `{"hook":"Churn fell after one change #growth","style":"stat"}`,
		"emoji":       `{"hook":"Churn fell after one change ✅","style":"stat"}`,
		"broken json": `{"hook": "x",}`,
	}
	for name, raw := range bad {
		if _, err := parseHook(raw, cfg); !errors.Is(err, apierr.ErrMalformedOutput) {
			t.Errorf("%s: want ErrMalformedOutput, got=%v", name, err)
		}
	}
}

func TestFallbackHook(t *testing.T) {
	cfg := config.Default().Hook
	idea := &types.Idea{Topic: "Onboarding simplification"}

	got := fallbackHook("\"Here's the thing: churn fell 20% after we cut onboarding in half. Then more happened.\"\nSecond line", idea, cfg)
	if got != "Here's the thing: churn fell 20% after we cut onboarding in half." {
		t.Fatalf("got=%q", got)
	}
	if got := fallbackHook("", idea, cfg); got != "Onboarding simplification" {
		t.Fatalf("empty text should fall back to topic, got=%q", got)
	}
	long := strings.Repeat("onboarding ", 40)
	if got := fallbackHook(long, idea, cfg); len([]rune(got)) > cfg.FallbackMaxChars || wordCount(got) > cfg.MaxWords {
		t.Fatalf("fallback not clamped: %q", got)
	}
	if got := fallbackHook("#### \U0001F525", &types.Idea{}, cfg); got == "" {
		t.Fatalf("fallback hook must never be empty")
	}
}

func TestGenerateHookPaths(t *testing.T) {
	cases := []struct {
		name    string
		gen     *fakeGen
		wantGen string
	}{
		{"parsed", (&fakeGen{}).on(markHook, reply(happyHook)), types.GenParsed},
		{"retried", (&fakeGen{}).on(markHook, reply("Sure, here is a hook!")).on(markHookRetry, reply(happyHook)), types.GenRetried},
		{"fallback", (&fakeGen{}).on(markHook, failing()).on(markHookRetry, reply("{broken")).on(markHookFallback, reply("Fewer steps, fewer churned users.")), types.GenFallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, tc.gen)
			owner := uuid.New()
			idea := e.idea(owner, e.doc(owner, types.SourceNote, "x"), "Onboarding", "Fewer steps keep users.")

			out, err := GenerateHook(context.Background(), HookDeps{
				Log: e.deps.Log, Ideas: e.ideas, Insights: e.insights, Styles: e.styles, Drafts: e.drafts, Gen: tc.gen, Config: e.deps.Config,
			}, HookInput{IdeaID: idea.ID})
			if err != nil {
				t.Fatalf("GenerateHook: %v", err)
			}
			if out.Gen != tc.wantGen || strings.TrimSpace(out.Hook) == "" {
				t.Fatalf("out: %#v", out)
			}
			draft, err := e.drafts.GetByID(e.dbc(), out.DraftID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if draft.HookText != out.Hook || draft.PostText != "" || draft.Status != types.DraftStatusDraft || draft.IdeaID != idea.ID {
				t.Fatalf("draft: %#v", draft)
			}
			if tc.wantGen != types.GenFallback && (wordCount(draft.HookText) > 15 || !isSingleSentence(draft.HookText)) {
				t.Fatalf("hook contract violated: %q", draft.HookText)
			}
		})
	}
}

func TestGenerateHookUsesWritingStyle(t *testing.T) {
	gen := (&fakeGen{}).on(markHook, reply(happyHook))
	e := newEnv(t, gen)
	owner := uuid.New()
	if err := e.styles.Upsert(e.dbc(), &types.WritingStyle{OwnerID: owner, Tone: "dry humour", BannedPhrases: []string{"game changer"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	idea := e.idea(owner, e.doc(owner, types.SourceNote, "x"), "Onboarding", "Fewer steps keep users.")
	if _, err := GenerateHook(context.Background(), HookDeps{
		Log: e.deps.Log, Ideas: e.ideas, Insights: e.insights, Styles: e.styles, Drafts: e.drafts, Gen: gen, Config: e.deps.Config,
	}, HookInput{IdeaID: idea.ID}); err != nil {
		t.Fatalf("GenerateHook: %v", err)
	}
	sys := gen.calls[0].System
	if !strings.Contains(sys, "dry humour") || !strings.Contains(sys, `"game changer"`) {
		t.Fatalf("style not applied to system prompt:\n%s", sys)
	}
}

func TestGenerateHookMissingIdea(t *testing.T) {
	e := newEnv(t, &fakeGen{})
	_, err := GenerateHook(context.Background(), HookDeps{
		Log: e.deps.Log, Ideas: e.ideas, Insights: e.insights, Styles: e.styles, Drafts: e.drafts, Gen: &fakeGen{}, Config: e.deps.Config,
	}, HookInput{IdeaID: uuid.New()})
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got=%v", err)
	}
}
