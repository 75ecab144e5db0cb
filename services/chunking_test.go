package services

import (
	"strings"
	"testing"

	"drive-rag-chatbot/models"
)

func TestSplitTextReconstruction(t *testing.T) {
	src := models.ExtractedText{
		SourceID:    "doc-1",
		DisplayName: "Report",
		Text:        strings.Repeat("abcdefghij", 250), // 2500 chars
	}

	chunks := SplitText(src, 1000, 0)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Text) != 1000 || len(chunks[1].Text) != 1000 || len(chunks[2].Text) != 500 {
		t.Fatalf("unexpected chunk sizes: %d, %d, %d", len(chunks[0].Text), len(chunks[1].Text), len(chunks[2].Text))
	}

	var rebuilt strings.Builder
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.TotalChunks != 3 {
			t.Errorf("chunk %d has total %d, want 3", i, c.TotalChunks)
		}
		if c.SourceID != "doc-1" || c.DisplayName != "Report" {
			t.Errorf("chunk %d lost provenance: %+v", i, c)
		}
		rebuilt.WriteString(c.Text)
	}
	if rebuilt.String() != src.Text {
		t.Error("concatenated chunks do not reconstruct the original text")
	}
}

func TestSplitTextWhitespaceOnly(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t \n"} {
		chunks := SplitText(models.ExtractedText{SourceID: "d", Text: text}, 1000, 0)
		if chunks != nil {
			t.Errorf("text %q: expected nil chunks, got %d", text, len(chunks))
		}
	}
}

func TestSplitTextShorterThanChunk(t *testing.T) {
	chunks := SplitText(models.ExtractedText{SourceID: "d", Text: "short text"}, 1000, 0)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Errorf("got %q", chunks[0].Text)
	}
	if chunks[0].TotalChunks != 1 {
		t.Errorf("got total %d", chunks[0].TotalChunks)
	}
}

func TestSplitTextExactMultiple(t *testing.T) {
	chunks := SplitText(models.ExtractedText{SourceID: "d", Text: strings.Repeat("x", 2000)}, 1000, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) != 1000 {
			t.Errorf("chunk %d has %d chars", i, len(c.Text))
		}
	}
}

func TestSplitTextWithOverlap(t *testing.T) {
	chunks := SplitText(models.ExtractedText{SourceID: "d", Text: "abcdefghij"}, 4, 2)
	want := []string{"abcd", "cdef", "efgh", "ghij"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].Text, w)
		}
	}
}

func TestSplitTextMultiByte(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 100)
	chunks := SplitText(models.ExtractedText{SourceID: "d", Text: text}, 100, 0)

	var rebuilt strings.Builder
	for _, c := range chunks {
		if !strings.ContainsRune("héllo wörld ", []rune(c.Text)[0]) {
			t.Errorf("chunk starts mid-character: %q", c.Text[:4])
		}
		rebuilt.WriteString(c.Text)
	}
	if rebuilt.String() != text {
		t.Error("multi-byte text not reconstructed exactly")
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	src := models.ExtractedText{SourceID: "d", Text: strings.Repeat("deterministic ", 200)}
	a := SplitText(src, 300, 50)
	b := SplitText(src, 300, 50)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
