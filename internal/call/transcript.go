package call

import (
	"strings"

	"github.com/artinSha/RingApp-Backend/internal/store"
)

// maxUtteranceChars caps the total user text handed to the evaluator. When a
// long call exceeds it, the oldest utterances are dropped first so recent
// speech wins.
const maxUtteranceChars = 6000

// BuildTranscript renders the turns as a labeled transcript, strictly in
// index order: the AI line of each turn followed by the user line when both
// are present. Pure function of the turn sequence; this string is the entire
// context handed to the dialogue provider.
func BuildTranscript(turns []store.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		if ai := strings.TrimSpace(t.AIText); ai != "" {
			b.WriteString("AI: ")
			b.WriteString(ai)
			b.WriteString("\n")
		}
		if t.UserText != nil {
			if u := strings.TrimSpace(*t.UserText); u != "" {
				b.WriteString("User: ")
				b.WriteString(u)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// ExtractUtterances collects the non-empty user lines oldest first, then
// trims from the front while the combined length exceeds budget. The most
// recent utterance is always retained, even when it alone exceeds the budget.
func ExtractUtterances(turns []store.Turn, budget int) []string {
	var out []string
	total := 0
	for _, t := range turns {
		if t.UserText == nil {
			continue
		}
		u := strings.TrimSpace(*t.UserText)
		if u == "" {
			continue
		}
		out = append(out, u)
		total += len(u)
	}
	for len(out) > 1 && total > budget {
		total -= len(out[0])
		out = out[1:]
	}
	return out
}

// splitLines reshapes the history into parallel user/AI sequences for the
// close-call response.
func splitLines(turns []store.Turn) (userLines, aiLines []string) {
	for _, t := range turns {
		aiLines = append(aiLines, t.AIText)
		if t.UserText != nil {
			userLines = append(userLines, *t.UserText)
		}
	}
	return userLines, aiLines
}
