package storage

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"
)

// Config holds the Supabase storage settings.
type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

// Storage archives synthesized audio clips in a Supabase bucket so the client
// can fetch the opener by URL instead of an inline payload.
type Storage struct {
	client  *supabase.Client
	bucket  string
	baseURL string
}

func New(config Config) (*Storage, error) {
	client, err := supabase.NewClient(config.URL, config.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Storage{
		client:  client,
		bucket:  config.Bucket,
		baseURL: strings.TrimRight(config.URL, "/"),
	}, nil
}

// UploadAudio stores an audio clip under key and returns its public URL.
func (s *Storage) UploadAudio(key string, data []byte) (string, error) {
	_, err := s.client.Storage.UploadFile(s.bucket, key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to upload to Supabase: %w", err)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key), nil
}
