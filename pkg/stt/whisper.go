package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// whisper.cpp does not emit a confidence score, so every result carries
// this fixed value.
const whisperConfidence = 0.9

// ErrEmptyAudio is returned when there is nothing to transcribe.
var ErrEmptyAudio = errors.New("stt: empty audio")

// WhisperConfig configures the whisper.cpp transcriber.
type WhisperConfig struct {
	// BinaryPath is the whisper.cpp main executable.
	BinaryPath string

	// ModelPath is the ggml model file.
	ModelPath string

	// Language passed to whisper (default "en").
	Language string

	// Timeout bounds a single transcription run.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultWhisperConfig returns sensible defaults.
func DefaultWhisperConfig() WhisperConfig {
	return WhisperConfig{
		BinaryPath: "whisper",
		Language:   "en",
		Timeout:    30 * time.Second,
		Logger:     slog.Default(),
	}
}

// Whisper implements Transcriber by shelling out to a whisper.cpp
// binary. Audio is written to a temp WAV file and the binary's stdout
// is the transcript.
type Whisper struct {
	config WhisperConfig
	logger *slog.Logger
}

// NewWhisper creates a whisper.cpp transcriber.
func NewWhisper(cfg WhisperConfig) (*Whisper, error) {
	if cfg.BinaryPath == "" {
		return nil, errors.New("stt: whisper binary path required")
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Whisper{
		config: cfg,
		logger: cfg.Logger.With("component", "stt.whisper"),
	}, nil
}

// Transcribe writes the audio to a temp file and runs whisper.cpp.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	start := time.Now()

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("stt_%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, audio, 0o600); err != nil {
		return nil, fmt.Errorf("stt: write temp audio: %w", err)
	}
	defer os.Remove(tmp)

	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	args := []string{
		"-f", tmp,
		"--output-txt",
		"--no-timestamps",
		"--language", w.config.Language,
	}
	if w.config.ModelPath != "" {
		args = append([]string{"-m", w.config.ModelPath}, args...)
	}

	cmd := exec.CommandContext(ctx, w.config.BinaryPath, args...)
	// Without this, Output blocks past the kill while any child of a
	// wrapper script keeps the stdout pipe open.
	cmd.WaitDelay = time.Second
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("stt: whisper failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("stt: whisper failed: %w", err)
	}

	text := strings.TrimSpace(string(out))
	latency := time.Since(start).Milliseconds()

	w.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(text),
		"latency_ms", latency,
	)

	return &Result{
		Text:       text,
		Confidence: whisperConfidence,
		LatencyMs:  latency,
	}, nil
}

// Health verifies the whisper binary exists.
func (w *Whisper) Health(ctx context.Context) error {
	if _, err := exec.LookPath(w.config.BinaryPath); err != nil {
		return fmt.Errorf("stt: whisper binary not found: %w", err)
	}
	return nil
}

// Close is a no-op.
func (w *Whisper) Close() error {
	return nil
}

// Verify Whisper implements Transcriber at compile time.
var _ Transcriber = (*Whisper)(nil)
