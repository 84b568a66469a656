package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/observability"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

const StageExtract = "extract_ideas"

// Stage is one typed step of the pipeline.
type Stage[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
}

type stageFunc[In, Out any] struct {
	name string
	fn   func(context.Context, In) (Out, error)
}

func NewStage[In, Out any](name string, fn func(context.Context, In) (Out, error)) Stage[In, Out] {
	return stageFunc[In, Out]{name: name, fn: fn}
}

func (s stageFunc[In, Out]) Name() string { return s.name }

func (s stageFunc[In, Out]) Run(ctx context.Context, in In) (Out, error) { return s.fn(ctx, in) }

// runStage wraps a stage call in a span and a StageError.
func runStage[In, Out any](ctx context.Context, s Stage[In, Out], ideaID uuid.UUID, in In) (Out, error) {
	ctx, end := observability.StartStage(ctx, s.Name(), attribute.String("idea_id", ideaID.String()))
	out, err := s.Run(ctx, in)
	if err != nil {
		err = &StageError{Stage: s.Name(), IdeaID: ideaID, Err: err}
	}
	end(err)
	return out, err
}

type Stages struct {
	Extract Stage[ExtractIdeasInput, ExtractIdeasOutput]
	Insight Stage[InsightInput, InsightOutput]
	Hook    Stage[HookInput, HookOutput]
	Post    Stage[PostInput, PostOutput]
}

// Deps is everything the default stages need. It is built once per process.
type Deps struct {
	Log       *logger.Logger
	Config    config.Pipeline
	Documents repos.RawDocumentRepo
	Ideas     repos.IdeaRepo
	Insights  repos.InsightRepo
	Drafts    repos.DraftRepo
	Styles    repos.WritingStyleRepo
	Gen       llm.Generator
	Embed     llm.Embedder
	Index     SectionIndex
}

func DefaultStages(d Deps) Stages {
	return Stages{
		Extract: NewStage(StageExtract, func(ctx context.Context, in ExtractIdeasInput) (ExtractIdeasOutput, error) {
			return ExtractIdeas(ctx, ExtractIdeasDeps{Log: d.Log, Documents: d.Documents, Ideas: d.Ideas, Gen: d.Gen, Config: d.Config}, in)
		}),
		Insight: NewStage(config.StageInsight, func(ctx context.Context, in InsightInput) (InsightOutput, error) {
			return RetrieveInsight(ctx, InsightDeps{
				Log: d.Log, Ideas: d.Ideas, Documents: d.Documents, Insights: d.Insights,
				Embed: d.Embed, Gen: d.Gen, Index: d.Index, Config: d.Config,
			}, in)
		}),
		Hook: NewStage(config.StageHook, func(ctx context.Context, in HookInput) (HookOutput, error) {
			return GenerateHook(ctx, HookDeps{
				Log: d.Log, Ideas: d.Ideas, Insights: d.Insights, Styles: d.Styles, Drafts: d.Drafts, Gen: d.Gen, Config: d.Config,
			}, in)
		}),
		Post: NewStage(config.StagePost, func(ctx context.Context, in PostInput) (PostOutput, error) {
			return ComposePost(ctx, PostDeps{
				Log: d.Log, Ideas: d.Ideas, Insights: d.Insights, Styles: d.Styles, Drafts: d.Drafts, Gen: d.Gen, Config: d.Config,
			}, in)
		}),
	}
}

// Draft states as seen by the orchestrator.
const (
	DraftStateNone    = ""
	DraftStateCreated = "created"
	DraftStateFilled  = "filled"
)

type IdeaRunResult struct {
	IdeaID     uuid.UUID  `json:"idea_id"`
	InsightID  *uuid.UUID `json:"insight_id,omitempty"`
	DraftID    *uuid.UUID `json:"draft_id,omitempty"`
	DraftState string     `json:"draft_state"`
	Hook       string     `json:"hook,omitempty"`
	PostText   string     `json:"post_text,omitempty"`
	FailedAt   string     `json:"failed_stage,omitempty"`
	Err        error      `json:"-"`
}

type DocumentRunResult struct {
	IdeaIDs []uuid.UUID     `json:"idea_ids"`
	Skipped int             `json:"skipped"`
	Failed  int             `json:"failed"`
	Ideas   []IdeaRunResult `json:"ideas"`
}

type Orchestrator struct {
	log      *logger.Logger
	cfg      config.Pipeline
	stages   Stages
	notifier DraftNotifier
}

func NewOrchestrator(log *logger.Logger, cfg config.Pipeline, stages Stages, notifier DraftNotifier) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{log: log.With("component", "ContentOrchestrator"), cfg: cfg, stages: stages, notifier: notifier}
}

// ProcessDocument extracts ideas from a document and runs the per-idea chain
// for each new one, one idea at a time. Chain failures are recorded on the
// idea result and never abort sibling ideas.
func (o *Orchestrator) ProcessDocument(ctx context.Context, rawDocumentID uuid.UUID, fromBatch bool) (DocumentRunResult, error) {
	res := DocumentRunResult{IdeaIDs: []uuid.UUID{}, Ideas: []IdeaRunResult{}}
	ctx, end := observability.StartStage(ctx, StageExtract,
		attribute.String("raw_document_id", rawDocumentID.String()),
		attribute.Bool("from_batch", fromBatch),
	)
	out, err := o.stages.Extract.Run(ctx, ExtractIdeasInput{
		RawDocumentID: rawDocumentID,
		OnAccepted: func(ctx context.Context, idea *types.Idea) {
			res.Ideas = append(res.Ideas, o.RunIdea(ctx, idea.ID, fromBatch))
		},
	})
	end(err)
	if err != nil {
		return res, err
	}
	res.IdeaIDs = out.IdeaIDs
	res.Skipped = out.Skipped
	res.Failed = out.Failed
	return res, nil
}

// RunIdea runs the enabled per-idea stages in order. fromBatch is passed to
// the notifier only.
func (o *Orchestrator) RunIdea(ctx context.Context, ideaID uuid.UUID, fromBatch bool) IdeaRunResult {
	res := IdeaRunResult{IdeaID: ideaID, DraftState: DraftStateNone}
	log := o.log.With("idea_id", ideaID.String(), "from_batch", fromBatch)
	start := time.Now()

	fail := func(err error) IdeaRunResult {
		res.Err = err
		var se *StageError
		if errors.As(err, &se) {
			res.FailedAt = se.Stage
		}
		log.Error("pipeline: idea chain stopped", "stage", res.FailedAt, "error", err, "draft_state", res.DraftState)
		return res
	}

	var insight *types.Insight
	if o.cfg.StageEnabled(config.StageInsight) {
		out, err := runStage(ctx, o.stages.Insight, ideaID, InsightInput{IdeaID: ideaID})
		if err != nil {
			return fail(err)
		}
		if out.Inserted && out.Insight != nil {
			insight = out.Insight
			id := insight.ID
			res.InsightID = &id
		}
	}

	if !o.cfg.StageEnabled(config.StageHook) {
		return res
	}
	hook, err := runStage(ctx, o.stages.Hook, ideaID, HookInput{IdeaID: ideaID, Insight: insight})
	if err != nil {
		return fail(err)
	}
	draftID := hook.DraftID
	res.DraftID = &draftID
	res.Hook = hook.Hook
	res.DraftState = DraftStateCreated

	if !o.cfg.StageEnabled(config.StagePost) {
		return res
	}
	post, err := runStage(ctx, o.stages.Post, ideaID, PostInput{DraftID: draftID, Insight: insight})
	if err != nil {
		return fail(err)
	}
	res.PostText = post.PostText
	res.InsightID = post.InsightID
	res.DraftState = DraftStateFilled

	if err := o.notifier.DraftReady(ctx, DraftReady{DraftID: draftID, IdeaID: ideaID, OwnerID: post.OwnerID, FromBatch: fromBatch}); err != nil {
		log.Warn("pipeline: draft notification failed", "draft_id", draftID.String(), "error", err)
	}
	log.Info("pipeline: idea chain complete", "draft_id", draftID.String(), "duration_ms", time.Since(start).Milliseconds())
	return res
}

func (r IdeaRunResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("idea %s failed at %s: %v", r.IdeaID, r.FailedAt, r.Err)
	}
	return fmt.Sprintf("idea %s: %s", r.IdeaID, r.DraftState)
}
