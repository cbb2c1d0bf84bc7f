package ingestion

import (
	"strings"
	"testing"
)

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(ChunkerConfig{})
	if c.config.MaxChars != 1800 {
		t.Errorf("MaxChars = %d, want 1800", c.config.MaxChars)
	}
	// A zero-value config must still produce overlapping chunks.
	if c.config.OverlapLines != 15 {
		t.Errorf("OverlapLines = %d, want 15", c.config.OverlapLines)
	}
}

func TestSplit_Empty(t *testing.T) {
	c := NewChunker(ChunkerConfig{})
	if got := c.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplit_SingleLine(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	for _, text := range []string{"hello world", "hello world\n"} {
		chunks := c.Split(text)
		if len(chunks) != 1 {
			t.Fatalf("Split(%q) produced %d chunks, want 1", text, len(chunks))
		}
		ch := chunks[0]
		if ch.Text != "hello world" || ch.StartLine != 1 || ch.EndLine != 1 {
			t.Errorf("Split(%q) = %+v, want {hello world 1 1}", text, ch)
		}
	}
}

func TestSplit_OversizedLine(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	long := strings.Repeat("x", 5_000)
	chunks := c.Split(long)
	if len(chunks) != 1 {
		t.Fatalf("produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != long {
		t.Error("oversized line must be emitted whole")
	}
	if chunks[0].StartLine != 1 || chunks[0].EndLine != 1 {
		t.Errorf("lines = %d-%d, want 1-1", chunks[0].StartLine, chunks[0].EndLine)
	}
}

func TestSplit_SizingAndOverlap(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	// 100 lines of 80 chars each: 81 chars per line with the newline.
	line := strings.Repeat("a", 80)
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = line
	}
	text := strings.Join(lines, "\n")

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("produced %d chunks, want several", len(chunks))
	}

	for i, ch := range chunks {
		size := 0
		for _, l := range strings.Split(ch.Text, "\n") {
			size += len(l) + 1
		}
		if size > 1800 {
			t.Errorf("chunk %d size %d exceeds 1800", i, size)
		}
		if i < len(chunks)-1 && size < 900 {
			t.Errorf("chunk %d size %d below 900", i, size)
		}
		if ch.StartLine < 1 || ch.EndLine < ch.StartLine {
			t.Errorf("chunk %d has invalid range %d-%d", i, ch.StartLine, ch.EndLine)
		}
	}

	// Each chunk starts 15 lines before the previous one's end and
	// always advances.
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartLine <= prev.StartLine {
			t.Errorf("chunk %d does not advance: %d after %d", i, cur.StartLine, prev.StartLine)
		}
		if back := prev.EndLine - cur.StartLine; back != 15 {
			t.Errorf("chunk %d rewinds %d lines, want 15", i, back)
		}
	}

	// Every line is covered.
	if chunks[0].StartLine != 1 {
		t.Errorf("first chunk starts at %d, want 1", chunks[0].StartLine)
	}
	if last := chunks[len(chunks)-1]; last.EndLine != 100 {
		t.Errorf("last chunk ends at %d, want 100", last.EndLine)
	}
}

func TestSplit_TextMatchesLineRange(t *testing.T) {
	c := NewChunker(ChunkerConfig{})

	lines := make([]string, 60)
	for i := range lines {
		lines[i] = strings.Repeat("b", 40+i)
	}
	text := strings.Join(lines, "\n")

	for i, ch := range c.Split(text) {
		want := strings.Join(lines[ch.StartLine-1:ch.EndLine], "\n")
		if ch.Text != want {
			t.Errorf("chunk %d text does not match its declared line range", i)
		}
	}
}

func TestSplit_ShortLinesAdvance(t *testing.T) {
	// Tiny chunks with a large overlap must still make forward progress.
	c := NewChunker(ChunkerConfig{MaxChars: 20, OverlapLines: 15})

	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "ab"
	}
	chunks := c.Split(strings.Join(lines, "\n"))

	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if len(chunks) > 200 {
		t.Fatalf("produced %d chunks, overlap is not advancing", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartLine <= chunks[i-1].StartLine {
			t.Fatalf("chunk %d start %d did not advance past %d",
				i, chunks[i].StartLine, chunks[i-1].StartLine)
		}
	}
	if chunks[len(chunks)-1].EndLine != 50 {
		t.Errorf("last line covered = %d, want 50", chunks[len(chunks)-1].EndLine)
	}
}
