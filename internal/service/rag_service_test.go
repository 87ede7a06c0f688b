package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chatbot/internal/chunker"
	"chatbot/internal/domain"
	"chatbot/internal/embedding/tfidf"
	"chatbot/internal/keyword"
	"chatbot/internal/summarizer"
	"chatbot/internal/vectorstore/memory"
)

type fakeGenerator struct {
	prompt string
	err    error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return "generated", nil
}

const knowledgeText = "Acme Corp was founded in 1999 in Lisbon. " +
	"Our support desk is open Monday to Friday. " +
	"Refunds are issued within five business days. " +
	"The cafeteria serves lunch at noon. " +
	"Acme sells anvils, rockets and magnets. " +
	"Employees get thirty vacation days per year. " +
	"The parking garage closes at midnight. " +
	"Please ring the bell at reception. "

func newTestRAG(t *testing.T, gen domain.Generator) *RAGServiceImpl {
	t.Helper()
	kw, err := keyword.NewBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kw.Close() })
	svc := NewRAGService(
		chunker.NewFixedSizeChunker(48),
		tfidf.NewEmbedder(),
		memory.NewStorage(),
		kw,
		gen,
		summarizer.NewFrequencySummarizer(),
		RAGOptions{},
	)
	summary, err := svc.Ingest(context.Background(), domain.Document{ID: "kb", Path: "info.txt", Content: knowledgeText})
	if err != nil {
		t.Fatal(err)
	}
	if summary == "" {
		t.Error("expected a summary")
	}
	return svc
}

func TestIngest_IndexesAllChunks(t *testing.T) {
	svc := newTestRAG(t, &fakeGenerator{})
	want := (len(knowledgeText) + 47) / 48
	if svc.Chunks() != want {
		t.Errorf("Chunks=%d, want %d", svc.Chunks(), want)
	}
}

func TestRetrieve_TopFiveDeterministic(t *testing.T) {
	svc := newTestRAG(t, &fakeGenerator{})
	ctx := context.Background()
	a, err := svc.Retrieve(ctx, "When are refunds issued?", 0)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := svc.Retrieve(ctx, "When are refunds issued?", 0)
	if len(a) != DefaultTopK || len(b) != DefaultTopK {
		t.Fatalf("got %d and %d results", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("result %d differs between identical queries", i)
		}
		if i > 0 && a[i].Score < a[i-1].Score {
			t.Errorf("results not ascending by distance at %d", i)
		}
	}
	top := strings.ToLower(a[0].Chunk.Text)
	if !strings.Contains(top, "refund") && !strings.Contains(top, "issued") {
		t.Errorf("nearest chunk should be about refunds: %q", a[0].Chunk.Text)
	}
}

func TestRetrieve_ZeroVectorStillReturnsTopK(t *testing.T) {
	svc := newTestRAG(t, &fakeGenerator{})
	// stopwords only: the TF-IDF vector is zero and bleve matches nothing
	for _, q := range []string{"what is the", "xyzzy"} {
		res, err := svc.Retrieve(context.Background(), q, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 5 {
			t.Fatalf("%q: got %d results, want 5", q, len(res))
		}
		seen := map[string]bool{}
		for _, r := range res {
			if r.Chunk.ChunkID == "" || seen[r.Chunk.ChunkID] {
				t.Errorf("%q: bad or duplicate chunk %q", q, r.Chunk.ChunkID)
			}
			seen[r.Chunk.ChunkID] = true
		}
	}
}

func TestRetrieve_ZeroVectorPrefersKeywordHits(t *testing.T) {
	svc := newTestRAG(t, &fakeGenerator{})
	// "please" is a TF-IDF stopword but bleve indexes it
	res, err := svc.Retrieve(context.Background(), "please", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 5 {
		t.Fatalf("got %d results, want 5", len(res))
	}
	if !strings.Contains(res[0].Chunk.Text, "Please") {
		t.Errorf("keyword hit should come first, got %q", res[0].Chunk.Text)
	}
}

func TestAnswer_ZeroVectorHasContext(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestRAG(t, gen)
	ans, err := svc.Answer(context.Background(), "what is the")
	if err != nil {
		t.Fatal(err)
	}
	if len(ans.Sources) != DefaultTopK {
		t.Errorf("sources=%d", len(ans.Sources))
	}
	if strings.HasPrefix(gen.prompt, "Context: \n") {
		t.Errorf("empty context in prompt %q", gen.prompt)
	}
}

func TestIngest_ReplacesPreviousKeywordIndex(t *testing.T) {
	svc := newTestRAG(t, &fakeGenerator{})
	doc := domain.Document{ID: "kb2", Path: "new.txt", Content: "Widgets ship from Porto every Tuesday morning by truck."}
	if _, err := svc.Ingest(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	// "cafeteria" only exists in the first document
	res, err := svc.Retrieve(context.Background(), "cafeteria", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) == 0 {
		t.Fatal("expected chunks from the new document")
	}
	for _, r := range res {
		if r.Chunk.DocumentID != "kb2" {
			t.Errorf("stale chunk %q from a previous ingest", r.Chunk.ChunkID)
		}
	}
}

func TestAnswer_BuildsPromptFromContext(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestRAG(t, gen)
	ans, err := svc.Answer(context.Background(), "Where was Acme founded?")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Response != "generated" {
		t.Errorf("response=%q", ans.Response)
	}
	if len(ans.Sources) != DefaultTopK {
		t.Errorf("sources=%d", len(ans.Sources))
	}
	if !strings.HasPrefix(gen.prompt, "Context: ") || !strings.HasSuffix(gen.prompt, "\nQuestion: Where was Acme founded?\nAnswer:") {
		t.Errorf("unexpected prompt %q", gen.prompt)
	}
	if gen.prompt != BuildPrompt(ans.Sources, "Where was Acme founded?") {
		t.Error("prompt should be built from the returned sources")
	}
}

func TestAnswer_GeneratorError(t *testing.T) {
	svc := newTestRAG(t, &fakeGenerator{err: errors.New("model offline")})
	if _, err := svc.Answer(context.Background(), "Where?"); err == nil {
		t.Error("expected error")
	}
}

func TestBuildPrompt(t *testing.T) {
	results := []domain.SearchResult{{Chunk: domain.Chunk{Text: "a"}}, {Chunk: domain.Chunk{Text: "b"}}}
	if got := BuildPrompt(results, "q?"); got != "Context: a b\nQuestion: q?\nAnswer:" {
		t.Errorf("got %q", got)
	}
}
