package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/pdfchat-go/internal/rag"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"),
		schema.UserMessage("hello world"),
	}
	got := EstimateMessages(msgs)
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7.
	// Two messages: 14.
	if got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_TrimContext_NoTrimNeeded(t *testing.T) {
	t.Parallel()
	docs := []rag.Document{
		{Content: "first chunk", Score: 0.9},
		{Content: "second chunk", Score: 0.8},
	}
	got := TrimContext(docs, 100, DefaultMaxContextTokens)
	if len(got) != 2 {
		t.Errorf("want 2 documents, got %d", len(got))
	}
}

func Test_TrimContext_DropsLowestScoredFirst(t *testing.T) {
	t.Parallel()
	docs := []rag.Document{
		{Content: strings.Repeat("a", 40), Score: 0.9}, // 10 tokens
		{Content: strings.Repeat("b", 40), Score: 0.5}, // 10 tokens
		{Content: strings.Repeat("c", 40), Score: 0.2}, // 10 tokens
	}
	// reserved 5 + 30 doc tokens = 35; budget 25 fits two docs (5+20).
	got := TrimContext(docs, 5, 25)
	if len(got) != 2 {
		t.Fatalf("want 2 documents after trim, got %d", len(got))
	}
	if got[0].Score != 0.9 || got[1].Score != 0.5 {
		t.Errorf("trim removed the wrong document: scores %v, %v", got[0].Score, got[1].Score)
	}
}

func Test_TrimContext_KeepsBestDocWhenOverBudget(t *testing.T) {
	t.Parallel()
	docs := []rag.Document{
		{Content: strings.Repeat("a", 400), Score: 0.9},
		{Content: strings.Repeat("b", 400), Score: 0.1},
	}
	got := TrimContext(docs, 0, 1)
	if len(got) != 1 {
		t.Fatalf("want 1 document, got %d", len(got))
	}
	if got[0].Score != 0.9 {
		t.Errorf("kept document score = %v, want the highest scored one", got[0].Score)
	}
}

func Test_TrimContext_EmptyInput(t *testing.T) {
	t.Parallel()
	if got := TrimContext(nil, 0, 100); len(got) != 0 {
		t.Errorf("TrimContext(nil) = %v, want empty", got)
	}
}
