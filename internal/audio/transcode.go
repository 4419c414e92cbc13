package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FFmpeg shells out to ffmpeg to convert uploaded clips (m4a, mp3, ...) into
// the 16 kHz mono PCM WAV the transcription provider expects. WAV uploads
// bypass this entirely.
type FFmpeg struct {
	Bin string
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{Bin: "ffmpeg"}
}

func (f *FFmpeg) args(in, out string) []string {
	return []string{"-y", "-i", in, "-f", "wav", "-acodec", "pcm_s16le", "-ac", "1", "-ar", "16000", out}
}

// ToWAV16kMono transcodes one clip and returns the WAV bytes.
func (f *FFmpeg) ToWAV16kMono(ctx context.Context, in []byte, formatHint string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "ringapp-audio-*")
	if err != nil {
		return nil, fmt.Errorf("transcode: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ext := formatHint
	if ext == "" {
		ext = "m4a"
	}
	inPath := filepath.Join(dir, "in."+ext)
	outPath := filepath.Join(dir, "out.wav")
	if err := os.WriteFile(inPath, in, 0o600); err != nil {
		return nil, fmt.Errorf("transcode: write input: %w", err)
	}

	cmd := exec.CommandContext(ctx, f.Bin, f.args(inPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("transcode: ffmpeg: %w: %s", err, stderr.String())
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("transcode: read output: %w", err)
	}
	return out, nil
}
