package app

import (
	"context"
	"errors"
	"testing"

	repos "github.com/yungbote/postforge-backend/internal/data/repos/content"
	"github.com/yungbote/postforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/postforge-backend/internal/platform/logger"
	"github.com/yungbote/postforge-backend/internal/platform/pinecone"
	"github.com/yungbote/postforge-backend/internal/platform/qdrant"
)

type testVectorStore struct {
	upsertCalls int
}

func (s *testVectorStore) Upsert(context.Context, string, []pinecone.Vector) error {
	s.upsertCalls++
	return nil
}

func (s *testVectorStore) QueryMatches(context.Context, string, []float32, int, map[string]any) ([]pinecone.VectorMatch, error) {
	return nil, nil
}

func (s *testVectorStore) DeleteIDs(context.Context, string, []string) error { return nil }

type testPineconeClient struct{}

func (testPineconeClient) DescribeIndex(context.Context, string) (*pinecone.IndexDescription, error) {
	return &pinecone.IndexDescription{Host: "idx.local"}, nil
}

func (testPineconeClient) UpsertVectors(context.Context, string, pinecone.UpsertRequest) (*pinecone.UpsertResponse, error) {
	return &pinecone.UpsertResponse{}, nil
}

func (testPineconeClient) Query(context.Context, string, pinecone.QueryRequest) (*pinecone.QueryResponse, error) {
	return &pinecone.QueryResponse{}, nil
}

func (testPineconeClient) DeleteVectors(context.Context, string, pinecone.DeleteRequest) error {
	return nil
}

func sectionRepo(t *testing.T) repos.SectionRepo {
	t.Helper()
	return repos.NewSectionRepo(testutil.DB(t), testutil.Logger(t))
}

func stubProviders(t *testing.T) (qdrantCalls, pineconeCalls *int, captured *qdrant.Config) {
	t.Helper()
	origQdrant := newQdrantVectorStore
	origPineconeClient := newPineconeClient
	origPineconeStore := newPineconeVectorStore
	t.Cleanup(func() {
		newQdrantVectorStore = origQdrant
		newPineconeClient = origPineconeClient
		newPineconeVectorStore = origPineconeStore
	})
	q, p := 0, 0
	var cfg qdrant.Config
	newQdrantVectorStore = func(_ context.Context, _ *logger.Logger, c qdrant.Config) (pinecone.VectorStore, error) {
		q++
		cfg = c
		return &testVectorStore{}, nil
	}
	newPineconeClient = func(_ *logger.Logger, _ pinecone.Config) (pinecone.Client, error) {
		p++
		return testPineconeClient{}, nil
	}
	newPineconeVectorStore = func(_ *logger.Logger, _ pinecone.Client) (pinecone.VectorStore, error) {
		return &testVectorStore{}, nil
	}
	return &q, &p, &cfg
}

func TestResolveSectionIndexPostgresSkipsVectorStores(t *testing.T) {
	qCalls, pCalls, _ := stubProviders(t)
	idx, err := resolveSectionIndex(context.Background(), testutil.Logger(t), Config{VectorProvider: VectorProviderPostgres}, sectionRepo(t))
	if err != nil {
		t.Fatalf("resolveSectionIndex: %v", err)
	}
	if idx == nil {
		t.Fatalf("expected an index")
	}
	if *qCalls != 0 || *pCalls != 0 {
		t.Fatalf("external stores initialised: qdrant=%d pinecone=%d", *qCalls, *pCalls)
	}
}

func TestResolveSectionIndexQdrantSelected(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "postforge")
	t.Setenv("QDRANT_NAMESPACE_PREFIX", "")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")
	qCalls, pCalls, captured := stubProviders(t)

	idx, err := resolveSectionIndex(context.Background(), testutil.Logger(t), Config{VectorProvider: VectorProviderQdrant}, sectionRepo(t))
	if err != nil {
		t.Fatalf("resolveSectionIndex: %v", err)
	}
	if idx == nil || *qCalls != 1 || *pCalls != 0 {
		t.Fatalf("unexpected init: idx=%v qdrant=%d pinecone=%d", idx, *qCalls, *pCalls)
	}
	if captured.Collection != "postforge" || captured.VectorDim != 1536 || captured.NamespacePrefix != "pf" {
		t.Fatalf("qdrant config: %+v", *captured)
	}
}

func TestResolveSectionIndexQdrantMissingURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_COLLECTION", "postforge")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")
	stubProviders(t)

	_, err := resolveSectionIndex(context.Background(), testutil.Logger(t), Config{VectorProvider: VectorProviderQdrant}, sectionRepo(t))
	if got := vectorProviderBootstrapErrorCode(err); got != VectorProviderBootstrapErrorMissingQdrantURL {
		t.Fatalf("code: want=%q got=%q (err=%v)", VectorProviderBootstrapErrorMissingQdrantURL, got, err)
	}
}

func TestResolveSectionIndexPinecone(t *testing.T) {
	_, pCalls, _ := stubProviders(t)

	t.Setenv("PINECONE_API_KEY", "")
	_, err := resolveSectionIndex(context.Background(), testutil.Logger(t), Config{VectorProvider: VectorProviderPinecone}, sectionRepo(t))
	if got := vectorProviderBootstrapErrorCode(err); got != VectorProviderBootstrapErrorMissingPineconeKey {
		t.Fatalf("missing key: code=%q err=%v", got, err)
	}
	if *pCalls != 0 {
		t.Fatalf("pinecone client built without a key")
	}

	t.Setenv("PINECONE_API_KEY", "pk-test")
	idx, err := resolveSectionIndex(context.Background(), testutil.Logger(t), Config{VectorProvider: VectorProviderPinecone}, sectionRepo(t))
	if err != nil || idx == nil {
		t.Fatalf("resolveSectionIndex: idx=%v err=%v", idx, err)
	}
	if *pCalls != 1 {
		t.Fatalf("pinecone client calls: %d", *pCalls)
	}
}

func TestResolveSectionIndexUnknownProvider(t *testing.T) {
	_, err := resolveSectionIndex(context.Background(), testutil.Logger(t), Config{VectorProvider: "faiss"}, sectionRepo(t))
	var got *VectorProviderBootstrapError
	if !errors.As(err, &got) || got.Code != VectorProviderBootstrapErrorInvalidProvider {
		t.Fatalf("expected invalid_provider, got %v", err)
	}
}

func TestClassifyVectorProviderBootstrapError(t *testing.T) {
	cases := []struct {
		err  error
		want VectorProviderBootstrapErrorCode
	}{
		{&qdrant.ConfigError{Code: qdrant.ConfigErrorMissingCollection}, VectorProviderBootstrapErrorMissingQdrantColl},
		{&qdrant.ConfigError{Code: qdrant.ConfigErrorInvalidVectorDim}, VectorProviderBootstrapErrorInvalidQdrantVector},
		{errors.New("dial tcp: connection refused"), VectorProviderBootstrapErrorConnectFailed},
		{errors.New("collection has wrong dimension"), VectorProviderBootstrapErrorProviderInitFailed},
	}
	for _, tc := range cases {
		if got := vectorProviderBootstrapErrorCode(classifyVectorProviderBootstrapError("qdrant", tc.err)); got != tc.want {
			t.Fatalf("%v: want=%q got=%q", tc.err, tc.want, got)
		}
	}
}
