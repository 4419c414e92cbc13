package call

import (
	"strings"
	"testing"

	"github.com/artinSha/RingApp-Backend/internal/store"
)

func strPtr(s string) *string { return &s }

func TestBuildTranscript_LabelsInIndexOrder(t *testing.T) {
	turns := []store.Turn{
		{Index: 0, AIText: "Hi there.", UserText: strPtr("hello")},
		{Index: 1, AIText: "How are you?", UserText: strPtr("fine thanks")},
		{Index: 2, AIText: "Good to hear."},
	}
	want := "AI: Hi there.\nUser: hello\nAI: How are you?\nUser: fine thanks\nAI: Good to hear.\n"
	got := BuildTranscript(turns)
	if got != want {
		t.Fatalf("transcript mismatch:\ngot  %q\nwant %q", got, want)
	}
	// Pure function: same turns, same string.
	if again := BuildTranscript(turns); again != got {
		t.Fatalf("transcript not deterministic")
	}
}

func TestBuildTranscript_SkipsEmptyLines(t *testing.T) {
	turns := []store.Turn{
		{Index: 0, AIText: "  ", UserText: strPtr("hello")},
		{Index: 1, AIText: "Second.", UserText: strPtr("   ")},
	}
	got := BuildTranscript(turns)
	if got != "User: hello\nAI: Second.\n" {
		t.Fatalf("blank lines must be skipped, got %q", got)
	}
}

func TestExtractUtterances_OldestFirstNonEmptyOnly(t *testing.T) {
	turns := []store.Turn{
		{Index: 0, AIText: "a", UserText: strPtr("first")},
		{Index: 1, AIText: "b", UserText: strPtr("")},
		{Index: 2, AIText: "c"},
		{Index: 3, AIText: "d", UserText: strPtr("second")},
	}
	got := ExtractUtterances(turns, 6000)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("got %v", got)
	}
}

func TestExtractUtterances_BudgetKeepsSuffix(t *testing.T) {
	var turns []store.Turn
	var all []string
	for i := 0; i < 10; i++ {
		u := strings.Repeat("x", 100) // 100 chars each, 1000 total
		turns = append(turns, store.Turn{Index: i, AIText: "a", UserText: strPtr(u)})
		all = append(all, u)
	}
	got := ExtractUtterances(turns, 350)
	if len(got) != 3 {
		t.Fatalf("expected 3 retained utterances, got %d", len(got))
	}
	// Retained slice must be a suffix of the full sequence.
	suffix := all[len(all)-len(got):]
	for i := range got {
		if got[i] != suffix[i] {
			t.Fatalf("retained text is not the most recent suffix")
		}
	}
}

func TestExtractUtterances_KeepsMostRecentEvenOverBudget(t *testing.T) {
	turns := []store.Turn{
		{Index: 0, AIText: "a", UserText: strPtr(strings.Repeat("y", 50))},
		{Index: 1, AIText: "b", UserText: strPtr(strings.Repeat("z", 500))},
	}
	got := ExtractUtterances(turns, 100)
	if len(got) != 1 || got[0][0] != 'z' {
		t.Fatalf("most recent utterance must survive the budget, got %v entries", len(got))
	}
}
