package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyReply reports that the model answered successfully but produced no
// usable text. Callers substitute a fixed line for it instead of failing.
var ErrEmptyReply = errors.New("gemini: empty reply")

const defaultModel = "gemini-2.5-flash-lite"

// GeminiClient talks to the Gemini generateContent REST API. It serves both
// the role-play chat mode (Reply) and the strict-JSON evaluator mode
// (Evaluate); the core rebuilds the full transcript on every call, so the
// client itself is stateless.
type GeminiClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateContentRequest struct {
	SystemInstruction *geminiContent    `json:"system_instruction,omitempty"`
	Contents          []geminiContent   `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = defaultModel
	}
	return &GeminiClient{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		APIKey:     apiKey,
		Model:      model,
	}
}

// Reply asks for the next AI line given the scenario instruction and the
// labeled conversation transcript.
func (c *GeminiClient) Reply(ctx context.Context, systemInstruction, transcript string) (string, error) {
	return c.generate(ctx, systemInstruction, transcript, false)
}

// Evaluate runs the model in evaluator mode, forcing a JSON response body.
func (c *GeminiClient) Evaluate(ctx context.Context, instruction, payload string) (string, error) {
	return c.generate(ctx, instruction, payload, true)
}

func (c *GeminiClient) generate(ctx context.Context, systemInstruction, prompt string, jsonOut bool) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("gemini api key missing")
	}
	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", c.Model)

	reqPayload := generateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if systemInstruction != "" {
		reqPayload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}
	if jsonOut {
		reqPayload.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	reqBody, _ := json.Marshal(reqPayload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var gr generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	answer := strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text)
	if answer == "" {
		return "", ErrEmptyReply
	}
	return answer, nil
}
