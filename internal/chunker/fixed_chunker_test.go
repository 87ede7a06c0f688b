package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"chatbot/internal/domain"
)

func join(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, ch := range chunks {
		b.WriteString(ch.Text)
	}
	return b.String()
}

func TestFixedSizeChunker_Windows(t *testing.T) {
	c := NewFixedSizeChunker(4)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: "abcdefghij"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"abcd", "efgh", "ij"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, ch := range chunks {
		if ch.Text != want[i] {
			t.Errorf("chunk %d text=%q, want %q", i, ch.Text, want[i])
		}
		if ch.Index != i || ch.DocumentID != "doc" {
			t.Errorf("chunk %d has index=%d doc=%s", i, ch.Index, ch.DocumentID)
		}
	}
	if chunks[2].ChunkID != "doc:2" {
		t.Errorf("ChunkID=%s", chunks[2].ChunkID)
	}
}

func TestFixedSizeChunker_ExactMultiple(t *testing.T) {
	chunks, _ := NewFixedSizeChunker(3).Chunk(domain.Document{ID: "d", Content: "abcdef"})
	if len(chunks) != 2 || chunks[1].Text != "def" {
		t.Errorf("unexpected chunks %+v", chunks)
	}
}

func TestFixedSizeChunker_Empty(t *testing.T) {
	chunks, err := NewFixedSizeChunker(10).Chunk(domain.Document{ID: "d"})
	if err != nil || chunks != nil {
		t.Errorf("expected no chunks, got %v, %v", chunks, err)
	}
}

func TestFixedSizeChunker_DeterministicAndLossless(t *testing.T) {
	content := strings.Repeat("Our office is in Zürich — open 9–5. ", 40)
	c := NewFixedSizeChunker(17)
	first, _ := c.Chunk(domain.Document{ID: "d", Content: content})
	second, _ := c.Chunk(domain.Document{ID: "d", Content: content})
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
	if join(first) != content {
		t.Error("concatenated chunks do not reproduce the content")
	}
	for i, ch := range first {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
		if i < len(first)-1 && utf8.RuneCountInString(ch.Text) != 17 {
			t.Errorf("chunk %d has %d characters", i, utf8.RuneCountInString(ch.Text))
		}
	}
}

func TestNewFixedSizeChunker_Default(t *testing.T) {
	if NewFixedSizeChunker(0).Size() != DefaultChunkSize {
		t.Error("expected default size")
	}
}
