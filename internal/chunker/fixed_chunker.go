package chunker

import (
	"strconv"

	"chatbot/internal/domain"
)

// DefaultChunkSize is the window length used when none is configured.
const DefaultChunkSize = 512

// FixedSizeChunker splits text into consecutive, non-overlapping windows of
// a fixed number of characters. Only the last window may be shorter.
type FixedSizeChunker struct {
	size int
}

func NewFixedSizeChunker(size int) *FixedSizeChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &FixedSizeChunker{size: size}
}

// Size returns the window length in characters.
func (c *FixedSizeChunker) Size() int { return c.size }

// Chunk windows the document content. Joining the chunk texts yields the content unchanged.
func (c *FixedSizeChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if document.Content == "" {
		return nil, nil
	}
	var chunks []domain.Chunk
	start, count, idx := 0, 0, 0
	// windows count runes so multi-byte characters are never split
	for pos := range document.Content {
		if count == c.size {
			chunks = append(chunks, c.newChunk(document, idx, document.Content[start:pos]))
			start, count = pos, 0
			idx++
		}
		count++
	}
	chunks = append(chunks, c.newChunk(document, idx, document.Content[start:]))
	return chunks, nil
}

func (c *FixedSizeChunker) newChunk(document domain.Document, idx int, text string) domain.Chunk {
	return domain.Chunk{
		DocumentID: document.ID,
		ChunkID:    document.ID + ":" + strconv.Itoa(idx),
		Text:       text,
		Index:      idx,
	}
}
