// Package keyword provides an in-memory Bleve index over chunk text.
package keyword

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"chatbot/internal/domain"
)

// BleveIndex is a lexical index used when a query embeds to the zero vector.
type BleveIndex struct {
	index  bleve.Index
	chunks map[string]domain.Chunk
}

// NewBleveIndex creates an empty memory-only index.
func NewBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, chunks: make(map[string]domain.Chunk)}, nil
}

// Index adds chunks in a single batch.
func (b *BleveIndex) Index(chunks []domain.Chunk) error {
	batch := b.index.NewBatch()
	for _, ch := range chunks {
		if err := batch.Index(ch.ChunkID, map[string]any{"text": ch.Text}); err != nil {
			return fmt.Errorf("index chunk %s: %w", ch.ChunkID, err)
		}
		b.chunks[ch.ChunkID] = ch
	}
	return b.index.Batch(batch)
}

// Clear removes every indexed chunk.
func (b *BleveIndex) Clear() error {
	if len(b.chunks) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for id := range b.chunks {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("clear keyword index: %w", err)
	}
	b.chunks = make(map[string]domain.Chunk)
	return nil
}

// Search runs a match query over chunk text and returns up to topK hits, best first.
func (b *BleveIndex) Search(query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequestOptions(q, topK, 0, false)
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ch, ok := b.chunks[hit.ID]
		if !ok {
			continue
		}
		out = append(out, domain.SearchResult{Chunk: ch, Score: hit.Score})
	}
	return out, nil
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
