package scenario

import (
	"fmt"
	"strings"
)

// openers are the starter prompts used to ask the dialogue provider for the
// scene-opening line; one is picked pseudo-randomly per call.
var openers = []string{
	"Let's jump in. Describe what you see, hear, and feel. Then tell me your first two actions and why.",
	"We've got choices. Explain your plan in 3-4 short sentences and the reason behind it.",
	"First, paint the scene in your own words. Then tell me what you do next and what could go wrong.",
}

// FallbackInstruction is used when a conversation references a scenario key
// that is no longer in the catalog.
const FallbackInstruction = "You are 'Ring', a friendly ESL conversation partner. " +
	"Reply naturally and briefly, keeping sentences simple and human."

// EvaluatorInstruction puts the dialogue provider into evaluation mode: no
// role-play, strict JSON only.
const EvaluatorInstruction = "You are an ESL evaluator. You MUST return strictly valid JSON " +
	"with the exact keys specified. No prose, no backticks, no extra text - JSON only."

// SystemInstruction renders the role-play instruction for one scenario.
func SystemInstruction(s Scenario) string {
	title := s.Title
	if title == "" {
		title = "Scenario"
	}
	return strings.TrimSpace(fmt.Sprintf(`
You are "Oli", an AI calling the learner to simulate a real, unexpected scenario.
Speak ONLY in natural, spoken English. Do NOT write stage directions or placeholders.
Refer to the learner as "you", not by name.

Hard rules (must follow):
- No brackets or parenthetical content: do NOT use (), [], {}, <> anywhere.
- No placeholders like [your name], [address], [sound effect], <pause>, *sighs*, etc.
- No scene narration or sound-effect labels.
- No markdown formatting or emojis. Plain text only.
- Keep it conversational (1-3 sentences, under 35 words total).
- React to the learner and guide them to describe (avoid yes/no questions).
- Push toward the stakes naturally (why this matters right now).

Scenario Context:
Title: %s
Setting: %s
Goal/Stakes: %s
Role: %s

Start in the middle of the situation. Speak like you're on a call. No brackets, no actions, just talk.`,
		title, s.Setting, s.Stakes, s.Role))
}

// InstructionFor returns the system instruction for a catalog key, degrading
// to the generic partner instruction for unknown keys.
func (c *Catalog) InstructionFor(key string) string {
	if s, ok := c.Get(key); ok {
		return SystemInstruction(s)
	}
	return FallbackInstruction
}

// OpenerPrompt builds the prompt that asks for the first AI line of a call.
func (c *Catalog) OpenerPrompt(key string) string {
	s, _ := c.Get(key)
	c.mu.Lock()
	starter := openers[c.rng.Intn(len(openers))]
	c.mu.Unlock()
	return fmt.Sprintf(
		"Start the scene now with one short, natural line (<=30 words). "+
			"Speak like a human. No explanations - just start the roleplay.\n"+
			"%s\nSetting: %s\nRole: %s\nStakes: %s",
		starter, s.Setting, s.Role, s.Stakes)
}

// EvaluationPrompt assembles the evaluator payload: scenario metadata plus the
// learner's utterances, with the exact JSON contract spelled out.
func EvaluationPrompt(s Scenario, utterances []string) string {
	var b strings.Builder
	b.WriteString("Evaluate the English of a learner practicing this scenario.\n")
	fmt.Fprintf(&b, "Title: %s\nSetting: %s\nStakes: %s\nRole: %s\n\n", s.Title, s.Setting, s.Stakes, s.Role)
	fmt.Fprintf(&b, "The learner said the following %d lines, oldest first:\n", len(utterances))
	for i, u := range utterances {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u)
	}
	b.WriteString("\nReturn ONLY a JSON object with exactly these keys:\n")
	b.WriteString(`{"success_percentage": <integer 0-100>, "grammar_issues": <integer>, ` +
		`"corrections": [{"original": "...", "corrected": "..."}], "turns_analyzed": <integer>}` + "\n")
	b.WriteString("corrections must have exactly grammar_issues entries and be empty when grammar_issues is 0.")
	return b.String()
}
