package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"chatbot/internal/domain"
)

// Storage is a flat in-memory index. Search is exhaustive and ranks by
// squared Euclidean distance, ascending. Chunk i always pairs with vector i.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), s.dimension)
		}
	}
	for i := range vectors {
		vec := make([]float64, s.dimension)
		copy(vec, vectors[i])
		s.vectors = append(s.vectors, vec)
		s.chunks = append(s.chunks, chunks[i])
	}
	return nil
}

// Search returns the topK nearest chunks. Equal distances keep insertion order.
func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	idxs := make([]int, len(s.vectors))
	dists := make([]float64, len(s.vectors))
	for i := range s.vectors {
		idxs[i] = i
		dists[i] = SquaredL2(s.vectors[i], vector)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return dists[idxs[a]] < dists[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: dists[j]})
	}
	return results, nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
	return nil
}

// Len returns the number of indexed vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// SquaredL2 is the squared Euclidean distance between equal-length vectors.
func SquaredL2(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
