package chunker

import (
	"strings"
	"testing"
)

// sentence is 100 bytes including the trailing space, so documents built
// from it have predictable break points.
const sentence = "The quick brown fox jumps over the lazy dog while the patient tortoise keeps a steady pace onward. "

func repeatText(n int) string {
	return strings.TrimSpace(strings.Repeat(sentence, n))
}

// TestChunk_Determinism verifies two runs over the same text produce
// identical chunk sequences including IDs.
func TestChunk_Determinism(t *testing.T) {
	text := repeatText(40)
	c := New()

	first := c.Chunk("doc-1", text)
	second := c.Chunk("doc-1", text)

	if len(first) == 0 {
		t.Fatal("expected chunks for a 4000-char document")
	}
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d: IDs differ: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].Text != second[i].Text {
			t.Errorf("chunk %d: texts differ", i)
		}
		if first[i].StartIndex != second[i].StartIndex || first[i].EndIndex != second[i].EndIndex {
			t.Errorf("chunk %d: offsets differ", i)
		}
		if first[i].PageNumber != second[i].PageNumber {
			t.Errorf("chunk %d: page numbers differ", i)
		}
	}
}

// TestChunk_Reconstruction verifies that stripping the overlap prefix from
// every chunk but the first and concatenating reproduces the normalised
// source up to the last emitted chunk.
func TestChunk_Reconstruction(t *testing.T) {
	text := repeatText(50)
	norm := Normalize(text)
	c := New()

	chunks := c.Chunk("doc-1", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		overlap := chunks[i-1].EndIndex - chunks[i].StartIndex
		if overlap < 0 {
			t.Fatalf("chunk %d does not overlap its predecessor", i)
		}
		rebuilt.WriteString(chunks[i].Text[overlap:])
	}

	want := norm[:chunks[len(chunks)-1].EndIndex]
	if rebuilt.String() != want {
		t.Error("reconstructed text does not match normalised source")
	}

	// Any dropped tail must be shorter than the minimum chunk size.
	if tail := len(norm) - chunks[len(chunks)-1].EndIndex; tail >= DefaultMinChunkSize {
		t.Errorf("dropped tail of %d chars exceeds minimum chunk size", tail)
	}
}

// TestChunk_MinimumSize verifies no emitted chunk is below the minimum.
func TestChunk_MinimumSize(t *testing.T) {
	for _, n := range []int{2, 11, 23, 47} {
		chunks := New().Chunk("doc-1", repeatText(n))
		for _, chunk := range chunks {
			if len(chunk.Text) < DefaultMinChunkSize {
				t.Errorf("n=%d: chunk %d has %d chars, below minimum %d",
					n, chunk.ChunkIndex, len(chunk.Text), DefaultMinChunkSize)
			}
		}
	}
}

// TestChunk_BelowMinimumInput verifies sub-minimum input yields no chunks.
func TestChunk_BelowMinimumInput(t *testing.T) {
	text := strings.Repeat("a", 95)
	if chunks := New().Chunk("doc-1", text); len(chunks) != 0 {
		t.Errorf("expected no chunks for 95-char input, got %d", len(chunks))
	}

	if chunks := New().Chunk("doc-1", ""); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

// TestChunk_SentenceBoundary verifies chunks end at sentence terminators
// when one is available past 60% of the target size.
func TestChunk_SentenceBoundary(t *testing.T) {
	text := repeatText(40)
	chunks := New().Chunk("doc-1", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for _, chunk := range chunks[:len(chunks)-1] {
		last := chunk.Text[len(chunk.Text)-1]
		if last != '.' && last != '!' && last != '?' && last != '\n' {
			t.Errorf("chunk %d ends mid-sentence with %q", chunk.ChunkIndex, last)
		}
		if len(chunk.Text) < DefaultChunkSize*minBreakPercent/100 {
			t.Errorf("chunk %d accepted a break at %d chars, before the 60%% floor",
				chunk.ChunkIndex, len(chunk.Text))
		}
	}
}

// TestChunk_HardCut verifies text without terminators cuts at the size limit.
func TestChunk_HardCut(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := New().Chunk("doc-1", text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if len(chunks[0].Text) != DefaultChunkSize {
		t.Errorf("expected hard cut at %d chars, got %d", DefaultChunkSize, len(chunks[0].Text))
	}
}

// TestChunk_PageEstimate verifies pages are monotone in start offset and
// start at 1.
func TestChunk_PageEstimate(t *testing.T) {
	chunks := New().Chunk("doc-1", repeatText(100))
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("first chunk page: expected 1, got %d", chunks[0].PageNumber)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].PageNumber < chunks[i-1].PageNumber {
			t.Errorf("page numbers not monotone at chunk %d", i)
		}
	}
	if last := chunks[len(chunks)-1].PageNumber; last < 2 {
		t.Errorf("expected later chunks on later pages, last page was %d", last)
	}
}

// TestChunk_Overlap verifies consecutive chunks share the configured overlap.
func TestChunk_Overlap(t *testing.T) {
	text := strings.Repeat("y", 3000) // No terminators: every cut is a hard cut.
	chunks := New().Chunk("doc-1", text)
	for i := 1; i < len(chunks); i++ {
		if got := chunks[i-1].EndIndex - chunks[i].StartIndex; got != DefaultOverlap {
			t.Errorf("chunk %d: overlap %d, want %d", i, got, DefaultOverlap)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"space runs", "a  \t b", "a b"},
		{"blank lines", "a\n\n\nb", "a\nb"},
		{"padded newline", "a \n b", "a\nb"},
		{"windows endings", "a\r\n\r\nb", "a\nb"},
		{"trim", "  a b  ", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChunkID_Stable(t *testing.T) {
	if ChunkID("doc-1", 0) != ChunkID("doc-1", 0) {
		t.Error("same document and index must produce the same ID")
	}
	if ChunkID("doc-1", 0) == ChunkID("doc-1", 1) {
		t.Error("different indices must produce different IDs")
	}
	if ChunkID("doc-1", 0) == ChunkID("doc-2", 0) {
		t.Error("different documents must produce different IDs")
	}
}
