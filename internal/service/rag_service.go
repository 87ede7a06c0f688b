package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"chatbot/internal/domain"
)

// DefaultTopK is the number of chunks retrieved as context for an answer.
const DefaultTopK = 5

// Answer is a generated reply and the chunks it was grounded on.
type Answer struct {
	Response string
	Sources  []domain.SearchResult
}

// RAGOptions tunes the retrieval service.
type RAGOptions struct {
	TopK                int
	SummaryMaxSentences int
	// RequestsPerMinute limits embedding calls during ingest; 0 means unlimited.
	RequestsPerMinute int
	Logger            *zap.Logger
}

// RAGServiceImpl indexes the knowledge file and answers questions over it.
type RAGServiceImpl struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      domain.VectorStore
	keyword    domain.KeywordIndex
	generator  domain.Generator
	summarizer domain.Summarizer
	limiter    *rate.Limiter
	topK       int
	maxSummary int
	logger     *zap.Logger
	chunks     int
}

// NewRAGService wires the retrieval pipeline. keyword and summarizer may be nil.
func NewRAGService(chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, keyword domain.KeywordIndex, generator domain.Generator, summarizer domain.Summarizer, opts RAGOptions) *RAGServiceImpl {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SummaryMaxSentences <= 0 {
		opts.SummaryMaxSentences = 2
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60)
		burst = opts.RequestsPerMinute
	}
	return &RAGServiceImpl{
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		keyword:    keyword,
		generator:  generator,
		summarizer: summarizer,
		limiter:    rate.NewLimiter(limit, burst),
		topK:       opts.TopK,
		maxSummary: opts.SummaryMaxSentences,
		logger:     opts.Logger,
	}
}

// Ingest chunks, embeds and indexes the document, replacing any previous index.
// It returns a short summary of the document.
func (s *RAGServiceImpl) Ingest(ctx context.Context, doc domain.Document) (string, error) {
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return "", fmt.Errorf("chunk %s: %w", doc.Path, err)
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no content in %s", doc.Path)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return "", fmt.Errorf("prepare embedder: %w", err)
	}

	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
		vec, err := s.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return "", fmt.Errorf("embed chunk %s: %w", chunks[i].ChunkID, err)
		}
		vectors[i] = vec
	}
	// remote embedders only learn their dimension after the first call
	dim := s.embedder.Dimension()
	if err := s.store.Init(ctx, dim); err != nil {
		return "", fmt.Errorf("init vector store: %w", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return "", fmt.Errorf("clear vector store: %w", err)
	}
	if err := s.store.Upsert(ctx, chunks, vectors); err != nil {
		return "", fmt.Errorf("upsert vectors: %w", err)
	}
	if s.keyword != nil {
		if err := s.keyword.Clear(); err != nil {
			return "", fmt.Errorf("clear keyword index: %w", err)
		}
		if err := s.keyword.Index(chunks); err != nil {
			return "", err
		}
	}
	s.chunks = len(chunks)
	s.logger.Info("knowledge indexed",
		zap.String("path", doc.Path),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", dim),
		zap.String("embedder", s.embedder.Name()))

	if s.summarizer == nil {
		return "", nil
	}
	return s.summarizer.Summarize(doc.Content, s.maxSummary)
}

// Chunks returns the number of indexed chunks.
func (s *RAGServiceImpl) Chunks() int { return s.chunks }

// Retrieve returns the topK chunks nearest to the question.
func (s *RAGServiceImpl) Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.topK
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if isZero(vec) && s.keyword != nil {
		s.logger.Debug("zero query vector, using keyword fallback", zap.String("question", question))
		return s.keywordFirst(ctx, question, vec, topK)
	}
	return s.store.Search(ctx, vec, topK)
}

// keywordFirst returns lexical hits first and fills the remaining slots from
// the flat index, so a query always gets topK chunks when that many exist.
func (s *RAGServiceImpl) keywordFirst(ctx context.Context, question string, vec []float64, topK int) ([]domain.SearchResult, error) {
	hits, err := s.keyword.Search(question, topK)
	if err != nil {
		return nil, err
	}
	if len(hits) >= topK {
		return hits[:topK], nil
	}
	nearest, err := s.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		seen[h.Chunk.ChunkID] = struct{}{}
	}
	for _, r := range nearest {
		if len(hits) == topK {
			break
		}
		if _, dup := seen[r.Chunk.ChunkID]; dup {
			continue
		}
		hits = append(hits, r)
	}
	return hits, nil
}

// Answer retrieves context for the question and asks the generator.
func (s *RAGServiceImpl) Answer(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrEmptyPrompt
	}
	if s.generator == nil {
		return Answer{}, errors.New("no generator configured")
	}
	results, err := s.Retrieve(ctx, question, s.topK)
	if err != nil {
		return Answer{}, err
	}
	resp, err := s.generator.Generate(ctx, BuildPrompt(results, question))
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}
	return Answer{Response: resp, Sources: results}, nil
}

// BuildPrompt joins the retrieved chunk texts with single spaces and frames the question.
func BuildPrompt(results []domain.SearchResult, question string) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return fmt.Sprintf("Context: %s\nQuestion: %s\nAnswer:", strings.Join(texts, " "), question)
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
