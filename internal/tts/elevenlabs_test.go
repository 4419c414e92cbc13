package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func rewireTo(srv *httptest.Server) *http.Client {
	return &http.Client{Timeout: time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
}

func TestElevenLabs_MissingCredentials(t *testing.T) {
	cases := []struct {
		name          string
		apiKey, voice string
	}{
		{"no_key", "", "voice"},
		{"no_voice", "key", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewElevenLabsClient(tc.apiKey, tc.voice)
			if _, err := c.Synthesize(context.Background(), "hello"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestElevenLabs_EmptyText(t *testing.T) {
	c := NewElevenLabsClient("key", "voice")
	if _, err := c.Synthesize(context.Background(), ""); err == nil {
		t.Fatalf("expected error with empty text")
	}
}

func TestElevenLabs_ReturnsAudioBytes(t *testing.T) {
	mp3 := []byte("ID3-fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/voice123") {
			t.Errorf("voice id missing from path: %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("api key header missing")
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(body, &req)
		if req.Text != "hello there" {
			t.Errorf("text = %q", req.Text)
		}
		_, _ = w.Write(mp3)
	}))
	defer srv.Close()

	c := NewElevenLabsClient("key", "voice123")
	c.HTTPClient = rewireTo(srv)
	got, err := c.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(got) != string(mp3) {
		t.Fatalf("audio bytes mismatch")
	}
}

func TestElevenLabs_ErrorIncludesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		_, _ = w.Write([]byte("invalid api key"))
	}))
	defer srv.Close()

	c := NewElevenLabsClient("key", "voice")
	c.HTTPClient = rewireTo(srv)
	_, err := c.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("error should carry status and body: %v", err)
	}
}
