package content

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	"github.com/yungbote/postforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/modules/content/config"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
	"github.com/yungbote/postforge-backend/internal/platform/llm"
)

var errFakeUpstream = errors.New("fake upstream down")

// fakeGen answers by the first route whose marker appears in the system prompt.
type fakeGen struct {
	mu     sync.Mutex
	routes []fakeRoute
	calls  []llm.Request
}

type fakeRoute struct {
	marker string
	reply  func(req llm.Request) (string, error)
}

func (g *fakeGen) on(marker string, reply func(req llm.Request) (string, error)) *fakeGen {
	g.routes = append(g.routes, fakeRoute{marker: marker, reply: reply})
	return g
}

func (g *fakeGen) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	for _, r := range g.routes {
		if strings.Contains(req.System, r.marker) {
			return r.reply(req)
		}
	}
	return "", fmt.Errorf("fakeGen: no route for prompt")
}

func (g *fakeGen) count(marker string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if strings.Contains(c.System, marker) {
			n++
		}
	}
	return n
}

func reply(s string) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return s, nil }
}

func failing() func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return "", errFakeUpstream }
}

// Prompt markers, matching the system prompts in prompts.go.
const (
	markExtract      = "content strategist"
	markInsight      = "You enrich a social post idea"
	markHook         = "Write exactly ONE opening hook"
	markHookRetry    = `{"hook":"","style":"","notes":""}.`
	markHookFallback = "Write one short opening line"
	markPost         = "Expand the hook into a full professional social post"
	markPostRetry    = `{"template_used":"","hook":"","post":""}.`
	markPostFallback = "Write a professional social post of about"
)

// hashEmbedder maps text to a letter-frequency vector; similar texts score high.
type hashEmbedder struct {
	fail bool
}

func (e hashEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if e.fail {
		return nil, errFakeUpstream
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(in) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		var norm float64
		for _, x := range v {
			norm += float64(x * x)
		}
		if norm > 0 {
			n := float32(math.Sqrt(norm))
			for j := range v {
				v[j] /= n
			}
		}
		out[i] = v
	}
	return out, nil
}

type env struct {
	t         *testing.T
	db        *gorm.DB
	deps      Deps
	documents repos.RawDocumentRepo
	sections  repos.SectionRepo
	ideas     repos.IdeaRepo
	insights  repos.InsightRepo
	drafts    repos.DraftRepo
	styles    repos.WritingStyleRepo
}

func newEnv(t *testing.T, gen llm.Generator) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	e := &env{
		t:         t,
		db:        db,
		documents: repos.NewRawDocumentRepo(db, log),
		sections:  repos.NewSectionRepo(db, log),
		ideas:     repos.NewIdeaRepo(db, log),
		insights:  repos.NewInsightRepo(db, log),
		drafts:    repos.NewDraftRepo(db, log),
		styles:    repos.NewWritingStyleRepo(db, log),
	}
	e.deps = Deps{
		Log:       log,
		Config:    config.Default(),
		Documents: e.documents,
		Ideas:     e.ideas,
		Insights:  e.insights,
		Drafts:    e.drafts,
		Styles:    e.styles,
		Gen:       gen,
		Embed:     hashEmbedder{},
		Index:     NewRepoSectionIndex(e.sections),
	}
	return e
}

func (e *env) dbc() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func (e *env) doc(owner uuid.UUID, sourceType, content string) *types.RawDocument {
	e.t.Helper()
	doc := &types.RawDocument{OwnerID: owner, SourceType: sourceType, Title: "t", Content: content}
	if err := e.documents.Create(e.dbc(), doc); err != nil {
		e.t.Fatalf("create doc: %v", err)
	}
	return doc
}

func (e *env) idea(owner uuid.UUID, doc *types.RawDocument, topic, takeaway string) *types.Idea {
	e.t.Helper()
	idea := &types.Idea{
		OwnerID: owner, RawDocumentID: doc.ID, Topic: topic, Summary: "We simplified onboarding and churn fell.",
		Takeaway: takeaway, DedupeSignature: Signature(topic, takeaway),
	}
	if ok, err := e.ideas.InsertIfAbsent(e.dbc(), idea); err != nil || !ok {
		e.t.Fatalf("insert idea: ok=%v err=%v", ok, err)
	}
	return idea
}

func hookFromUser(user string) string {
	for _, line := range strings.Split(user, "\n") {
		if strings.HasPrefix(line, "HOOK: ") {
			return strings.TrimPrefix(line, "HOOK: ")
		}
	}
	return ""
}

// happyPost returns a schema-valid post JSON that opens with the prompt's hook.
func happyPost(req llm.Request) (string, error) {
	hook := hookFromUser(req.User)
	body := hook + "\n\nWe cut the onboarding flow from seven steps to three and watched churn fall by a fifth within a quarter. " +
		"The lesson was simple: every extra screen is a reason to leave. Remove one this week and measure what happens."
	return fmt.Sprintf(`{"template_used":"Case Study","hook":%q,"post":%q}`, hook, body), nil
}

const happyHook = `{"hook":"Churn dropped 20% when we deleted half our onboarding.","style":"stat/result","notes":"lead with the number"}`

const happyIdeas = "```json\n" + `{"ideas":[
 {"topic":"Onboarding simplification","summary":"We simplified onboarding and churn fell 20%.","eq":"relief","takeaway":"Fewer steps keep users.","bucket":"Story"},
 {"topic":"Shipping feature X","summary":"Feature X shipped alongside the onboarding change.","eq":"pride","takeaway":"Ship small, measure fast.","bucket":"tactical"},
 {"topic":"","summary":"missing topic is dropped","takeaway":"x"}
]}` + "\n```"

func scenarioGen() *fakeGen {
	g := &fakeGen{}
	g.on(markExtract, reply(happyIdeas))
	g.on(markInsight, func(req llm.Request) (string, error) {
		if strings.Contains(req.User, "(no matching sections)") {
			return `[{"topic":"Onboarding","insight":"no clear RAG insight","insight_type":"none","value_added":""}]`, nil
		}
		return `[{"topic":"Onboarding","insight":"Earlier notes show activation doubled after the same cut.","insight_type":"stat","value_added":"adds proof"}]`, nil
	})
	g.on(markHook, reply(happyHook))
	g.on(markPost, happyPost)
	return g
}
