package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kensho/repoqa/internal/llm"
	"github.com/kensho/repoqa/internal/retrieval"
)

type fakeChat struct {
	configured bool
	reply      string
	err        error
	messages   []llm.Message
}

func (f *fakeChat) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) Configured() bool { return f.configured }

func sampleHits() []retrieval.ChunkHit {
	return []retrieval.ChunkHit{
		{FilePath: "a.go", StartLine: 1, EndLine: 30, Text: "func A() {}", Distance: 0.1},
		{FilePath: "b.go", StartLine: 5, EndLine: 25, Text: "func B() {}", Distance: 0.2},
	}
}

func TestFormatContext(t *testing.T) {
	got := FormatContext(sampleHits())
	want := "[1] a.go:1-30\nfunc A() {}\n\n[2] b.go:5-25\nfunc B() {}"
	if got != want {
		t.Errorf("FormatContext = %q, want %q", got, want)
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("FormatContext(nil) = %q, want empty", got)
	}
}

func TestBuildReferences(t *testing.T) {
	hits := append(sampleHits(), retrieval.ChunkHit{
		FilePath: "a.go", StartLine: 1, EndLine: 30, Text: "dup",
	})

	refs := BuildReferences("o", "r", "main", hits)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2 after dedupe", len(refs))
	}

	first := refs[0]
	if first.FilePath != "a.go" || first.StartLine != 1 || first.EndLine != 30 {
		t.Errorf("refs[0] = %+v", first)
	}
	wantURL := "https://github.com/o/r/blob/main/a.go#L1-L30"
	if first.URL != wantURL {
		t.Errorf("URL = %q, want %q", first.URL, wantURL)
	}
}

func TestCompose_WithLLM(t *testing.T) {
	chat := &fakeChat{configured: true, reply: "A does X [1]."}
	c := NewComposer(chat, nil)

	answer, refs := c.Compose(context.Background(), "o", "r", "main", "what does A do?", sampleHits())
	if answer != "A does X [1]." {
		t.Errorf("answer = %q", answer)
	}
	if len(refs) != 2 {
		t.Errorf("got %d refs, want 2", len(refs))
	}

	if len(chat.messages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(chat.messages))
	}
	if chat.messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", chat.messages[0].Role)
	}
	user := chat.messages[1]
	if user.Role != "user" || !strings.Contains(user.Content, "[1] a.go:1-30") {
		t.Errorf("user message missing context: %q", user.Content)
	}
	if !strings.Contains(user.Content, "what does A do?") {
		t.Error("user message missing the question")
	}
}

func TestCompose_DegradesWhenUnconfigured(t *testing.T) {
	c := NewComposer(&fakeChat{configured: false}, nil)

	answer, refs := c.Compose(context.Background(), "o", "r", "main", "q", sampleHits())
	if !strings.HasPrefix(answer, degradedMarker) {
		t.Errorf("answer missing degraded marker: %q", answer)
	}
	if !strings.Contains(answer, "[1] a.go:1-30") {
		t.Error("degraded answer must carry the retrieved context")
	}
	if len(refs) != 2 {
		t.Errorf("degraded mode still returns refs, got %d", len(refs))
	}
}

func TestCompose_DegradesOnLLMError(t *testing.T) {
	chat := &fakeChat{configured: true, err: errors.New("rate limited")}
	c := NewComposer(chat, nil)

	answer, refs := c.Compose(context.Background(), "o", "r", "main", "q", sampleHits())
	if !strings.HasPrefix(answer, degradedMarker) {
		t.Errorf("answer = %q, want degraded prefix", answer)
	}
	if len(refs) != 2 {
		t.Errorf("got %d refs, want 2", len(refs))
	}
}

func TestCompose_NilChat(t *testing.T) {
	c := NewComposer(nil, nil)

	answer, _ := c.Compose(context.Background(), "o", "r", "main", "q", sampleHits())
	if !strings.HasPrefix(answer, degradedMarker) {
		t.Errorf("answer = %q, want degraded prefix", answer)
	}
}
