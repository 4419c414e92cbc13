package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GoogleClient transcribes recorded clips with the Google Cloud
// Speech-to-Text recognize endpoint. Input is expected to be 16 kHz mono WAV;
// non-native uploads are transcoded before they reach this client.
type GoogleClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	Language   string
}

type recognitionConfig struct {
	LanguageCode string `json:"languageCode"`
	Model        string `json:"model,omitempty"`
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      "latest_short",
		Language:   "en-US",
	}
}

// Transcribe sends one audio clip for recognition and returns the combined
// transcript. An empty string with a nil error means no speech was detected.
func (c *GoogleClient) Transcribe(ctx context.Context, audio []byte, formatHint string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("google speech api key missing")
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("google speech: empty audio")
	}
	_ = formatHint // header-bearing formats are self-describing to the API

	var rr recognizeRequest
	rr.Config = recognitionConfig{LanguageCode: c.Language, Model: c.Model}
	rr.Audio.Content = base64.StdEncoding.EncodeToString(audio)

	reqBody, _ := json.Marshal(rr)
	endpoint := "https://speech.googleapis.com/v1/speech:recognize?key=" + c.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("google speech error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("google speech: decode response: %w", err)
	}

	var parts []string
	for _, r := range out.Results {
		if len(r.Alternatives) > 0 {
			if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " "), nil
}
