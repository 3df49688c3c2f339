package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const providerSay = "say"

// Say implements Provider using the macOS `say` command. It writes a
// WAV file to a temp path and returns its contents. Useful as an
// offline fallback when the hosted API is unreachable.
type Say struct {
	config *Config
	logger *slog.Logger
}

// NewSay creates a system TTS provider. No API key required.
func NewSay(opts ...Option) *Say {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Say{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.say"),
	}
}

// Synthesize runs `say` and returns the WAV audio.
func (s *Say) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerSay, ErrEmptyText)
	}

	start := time.Now()

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("tts_%d.wav", time.Now().UnixNano()))
	defer os.Remove(tmp)

	args := []string{"-o", tmp, "--data-format=LEI16@22050"}
	if s.config.VoiceID != "" {
		args = append(args, "-v", s.config.VoiceID)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, s.config.SayPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, WrapError(providerSay, fmt.Errorf("%v: %s", err, out))
	}

	audio, err := os.ReadFile(tmp)
	if err != nil {
		return nil, WrapError(providerSay, fmt.Errorf("read output: %w", err))
	}

	latency := time.Since(start).Milliseconds()
	s.logger.Debug("synthesized audio", "chars", len(text), "bytes", len(audio), "latency_ms", latency)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: 22050,
			Channels:   1,
		},
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health verifies the `say` binary is on PATH.
func (s *Say) Health(ctx context.Context) error {
	if _, err := exec.LookPath(s.config.SayPath); err != nil {
		return WrapError(providerSay, err)
	}
	return nil
}

// Close is a no-op.
func (s *Say) Close() error {
	return nil
}

// Verify Say implements Provider at compile time.
var _ Provider = (*Say)(nil)
