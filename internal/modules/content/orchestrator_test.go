package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []DraftReady
	err    error
}

func (n *recordingNotifier) DraftReady(_ context.Context, ev DraftReady) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

const scenarioText = "We shipped feature X and churn dropped 20% after simplifying onboarding."

func TestPipelineEndToEnd(t *testing.T) {
	gen := scenarioGen()
	e := newEnv(t, gen)
	notifier := &recordingNotifier{}
	orch := NewOrchestrator(e.deps.Log, e.deps.Config, DefaultStages(e.deps), notifier)
	owner := uuid.New()
	doc := e.doc(owner, types.SourceNote, scenarioText)

	res, err := orch.ProcessDocument(context.Background(), doc.ID, true)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if len(res.IdeaIDs) < 1 || len(res.Ideas) != len(res.IdeaIDs) {
		t.Fatalf("ideas: %+v", res)
	}

	for _, run := range res.Ideas {
		if run.Err != nil || run.DraftState != DraftStateFilled || run.DraftID == nil {
			t.Fatalf("idea run: %s", run)
		}
		idea, err := e.ideas.GetByID(e.dbc(), run.IdeaID)
		if err != nil {
			t.Fatalf("GetByID idea: %v", err)
		}
		if idea.Topic == "" || idea.Summary == "" {
			t.Fatalf("idea fields empty: %#v", idea)
		}

		insight, err := e.insights.LatestForIdea(e.dbc(), idea.ID)
		if err != nil || insight == nil {
			t.Fatalf("insight: %v %v", insight, err)
		}
		if insight.InsightType != types.InsightTypeNone {
			t.Fatalf("empty section store should yield a none insight, got=%q", insight.InsightType)
		}

		draft, err := e.drafts.GetByID(e.dbc(), *run.DraftID)
		if err != nil {
			t.Fatalf("GetByID draft: %v", err)
		}
		if wordCount(draft.HookText) > 15 || !isSingleSentence(draft.HookText) {
			t.Fatalf("hook contract: %q", draft.HookText)
		}
		n := utf8.RuneCountInString(draft.PostText)
		if n < 150 || n > 800 || !strings.Contains(draft.PostText, draft.HookText) {
			t.Fatalf("post (%d chars): %q", n, draft.PostText)
		}
		if draft.InsightID == nil || *draft.InsightID != insight.ID || draft.Status != types.DraftStatusDraft || !draft.Filled() {
			t.Fatalf("draft not linked: %#v", draft)
		}
	}

	if len(notifier.events) != len(res.Ideas) {
		t.Fatalf("notifications: want=%d got=%d", len(res.Ideas), len(notifier.events))
	}
	for _, ev := range notifier.events {
		if !ev.FromBatch || ev.OwnerID != owner {
			t.Fatalf("event: %#v", ev)
		}
	}
}

func TestPipelineDedupOnRerun(t *testing.T) {
	gen := scenarioGen()
	e := newEnv(t, gen)
	orch := NewOrchestrator(e.deps.Log, e.deps.Config, DefaultStages(e.deps), nil)
	owner := uuid.New()

	first, err := orch.ProcessDocument(context.Background(), e.doc(owner, types.SourceNote, scenarioText).ID, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	hookCalls := gen.count(markHook)

	second, err := orch.ProcessDocument(context.Background(), e.doc(owner, types.SourceNote, scenarioText).ID, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.IdeaIDs) != 0 || second.Skipped != len(first.IdeaIDs) {
		t.Fatalf("rerun: created=%d skipped=%d (first created %d)", len(second.IdeaIDs), second.Skipped, len(first.IdeaIDs))
	}
	if gen.count(markHook) != hookCalls {
		t.Fatalf("duplicates must not reach downstream stages")
	}

	// Fully deduplicated documents are done and not offered to the batch again.
	pending, err := e.documents.ListPending(e.dbc(), &owner, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending after rerun: %v err=%v", pending, err)
	}

	other, err := orch.ProcessDocument(context.Background(), e.doc(uuid.New(), types.SourceNote, scenarioText).ID, false)
	if err != nil || len(other.IdeaIDs) != len(first.IdeaIDs) {
		t.Fatalf("another owner should get fresh ideas: %+v err=%v", other, err)
	}
}

func TestPipelineIsolatesIdeaFailures(t *testing.T) {
	gen := scenarioGen()
	e := newEnv(t, gen)
	stages := DefaultStages(e.deps)
	inner := stages.Insight
	calls := 0
	stages.Insight = NewStage(config.StageInsight, func(ctx context.Context, in InsightInput) (InsightOutput, error) {
		calls++
		if calls == 1 {
			return InsightOutput{}, errors.New("insight backend exploded")
		}
		return inner.Run(ctx, in)
	})
	orch := NewOrchestrator(e.deps.Log, e.deps.Config, stages, nil)

	res, err := orch.ProcessDocument(context.Background(), e.doc(uuid.New(), types.SourceNote, scenarioText).ID, false)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if len(res.Ideas) != 2 {
		t.Fatalf("want 2 idea runs, got=%d", len(res.Ideas))
	}
	failed, passed := res.Ideas[0], res.Ideas[1]
	var se *StageError
	if !errors.As(failed.Err, &se) || se.Stage != config.StageInsight || failed.FailedAt != config.StageInsight || failed.DraftID != nil {
		t.Fatalf("first idea should fail at insight: %s", failed)
	}
	if passed.Err != nil || passed.DraftState != DraftStateFilled {
		t.Fatalf("second idea should complete: %s", passed)
	}
}

func TestPipelineHonoursDisabledStages(t *testing.T) {
	gen := scenarioGen()
	e := newEnv(t, gen)
	cfg := config.Default()
	off := false
	cfg.Stages = []config.StageSpec{{Name: config.StageInsight, Enabled: &off}, {Name: config.StageHook}, {Name: config.StagePost, Enabled: &off}}
	orch := NewOrchestrator(e.deps.Log, cfg, DefaultStages(e.deps), nil)
	owner := uuid.New()
	idea := e.idea(owner, e.doc(owner, types.SourceNote, scenarioText), "Onboarding", "Fewer steps keep users.")

	run := orch.RunIdea(context.Background(), idea.ID, false)
	if run.Err != nil || run.DraftState != DraftStateCreated || run.InsightID != nil {
		t.Fatalf("run: %s", run)
	}
	if gen.count(markInsight) != 0 || gen.count(markPost) != 0 {
		t.Fatalf("disabled stages ran")
	}
}

func TestPipelineMissingDocument(t *testing.T) {
	e := newEnv(t, scenarioGen())
	orch := NewOrchestrator(e.deps.Log, e.deps.Config, DefaultStages(e.deps), nil)
	if _, err := orch.ProcessDocument(context.Background(), uuid.New(), false); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got=%v", err)
	}
}

func TestExtractIdeasUnparseableYieldsNothing(t *testing.T) {
	gen := (&fakeGen{}).on(markExtract, reply("I could not find ideas, sorry."))
	e := newEnv(t, gen)
	doc := e.doc(uuid.New(), types.SourceNote, scenarioText)
	out, err := ExtractIdeas(context.Background(), ExtractIdeasDeps{
		Log: e.deps.Log, Documents: e.documents, Ideas: e.ideas, Gen: gen, Config: e.deps.Config,
	}, ExtractIdeasInput{RawDocumentID: doc.ID})
	if err != nil || len(out.IdeaIDs) != 0 || out.Skipped != 0 {
		t.Fatalf("want empty result, got=%+v err=%v", out, err)
	}
	if !gen.calls[0].JSON {
		t.Fatalf("extraction should request JSON mode")
	}
	if got, err := e.documents.GetByID(e.dbc(), doc.ID); err != nil || got.ExtractedAt != nil {
		t.Fatalf("document should stay pending: %#v err=%v", got, err)
	}
}

// failOnceIdeas fails the first insert and delegates the rest.
type failOnceIdeas struct {
	repos.IdeaRepo
	failed bool
}

func (r *failOnceIdeas) InsertIfAbsent(dbc dbctx.Context, idea *types.Idea) (bool, error) {
	if !r.failed {
		r.failed = true
		return false, errors.New("connection reset")
	}
	return r.IdeaRepo.InsertIfAbsent(dbc, idea)
}

func TestExtractIdeasContinuesAfterInsertFailure(t *testing.T) {
	gen := scenarioGen()
	e := newEnv(t, gen)
	doc := e.doc(uuid.New(), types.SourceNote, scenarioText)
	accepted := 0
	out, err := ExtractIdeas(context.Background(), ExtractIdeasDeps{
		Log: e.deps.Log, Documents: e.documents, Ideas: &failOnceIdeas{IdeaRepo: e.ideas}, Gen: gen, Config: e.deps.Config,
	}, ExtractIdeasInput{RawDocumentID: doc.ID, OnAccepted: func(context.Context, *types.Idea) { accepted++ }})
	if err != nil {
		t.Fatalf("ExtractIdeas: %v", err)
	}
	if out.Failed != 1 || len(out.IdeaIDs) != 1 || accepted != 1 {
		t.Fatalf("want one failed and one created: %+v accepted=%d", out, accepted)
	}
	pending, err := e.documents.ListPending(e.dbc(), &doc.OwnerID, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != doc.ID {
		t.Fatalf("document with a failed insert should stay pending: %v err=%v", pending, err)
	}
}

func TestParseIdeaCandidates(t *testing.T) {
	arr := `[{"topic":"A","summary":"s","takeaway":"t"},{"topic":"B","summary":""}]`
	got, err := parseIdeaCandidates(arr)
	if err != nil || len(got) != 1 || got[0].Topic != "A" {
		t.Fatalf("array: %#v err=%v", got, err)
	}
	got, err = parseIdeaCandidates(happyIdeas)
	if err != nil || len(got) != 2 {
		t.Fatalf("wrapped: %#v err=%v", got, err)
	}
	if _, err := parseIdeaCandidates(`{"ideas":[]}`); !errors.Is(err, apierr.ErrMalformedOutput) {
		t.Fatalf("empty list should be malformed, got=%v", err)
	}
}
