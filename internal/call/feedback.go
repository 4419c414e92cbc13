package call

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artinSha/RingApp-Backend/internal/store"
)

// ParseFeedback strictly decodes an evaluator response into the feedback
// structure. Anything that is not the expected shape comes back as a
// MalformedFeedbackError carrying the raw text; callers wrap that raw text
// into a diagnostic feedback record instead of failing the close.
func ParseFeedback(raw string) (store.Feedback, error) {
	var fb store.Feedback
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fb, &MalformedFeedbackError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fb); err != nil {
		return store.Feedback{}, &MalformedFeedbackError{Raw: raw, Err: err}
	}
	if dec.More() {
		return store.Feedback{}, &MalformedFeedbackError{Raw: raw, Err: fmt.Errorf("trailing data after feedback object")}
	}

	if fb.SuccessPercentage < 0 || fb.SuccessPercentage > 100 {
		return store.Feedback{}, &MalformedFeedbackError{
			Raw: raw,
			Err: fmt.Errorf("success_percentage %d out of range", fb.SuccessPercentage),
		}
	}
	if fb.GrammarIssues < 0 {
		return store.Feedback{}, &MalformedFeedbackError{
			Raw: raw,
			Err: fmt.Errorf("grammar_issues %d negative", fb.GrammarIssues),
		}
	}
	if fb.GrammarIssues == 0 {
		fb.Corrections = nil
	} else if fb.GrammarIssues != len(fb.Corrections) {
		// Evaluators occasionally miscount; the correction list is the truth.
		fb.GrammarIssues = len(fb.Corrections)
	}
	return fb, nil
}
