package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeWhisper writes a shell script that stands in for the whisper.cpp
// binary and returns its path.
func fakeWhisper(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whisper")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake whisper: %v", err)
	}
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	bin := fakeWhisper(t, `echo " I want two carnitas tacos "`)

	w, err := NewWhisper(WhisperConfig{BinaryPath: bin})
	if err != nil {
		t.Fatalf("NewWhisper: %v", err)
	}
	defer w.Close()

	result, err := w.Transcribe(context.Background(), []byte("RIFFfake-wav"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "I want two carnitas tacos" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Confidence != whisperConfidence {
		t.Errorf("Confidence = %v, want %v", result.Confidence, whisperConfidence)
	}
}

func TestWhisperFailure(t *testing.T) {
	bin := fakeWhisper(t, `echo "model load failed" >&2; exit 1`)

	w, _ := NewWhisper(WhisperConfig{BinaryPath: bin})
	_, err := w.Transcribe(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "stt: whisper failed: model load failed" {
		t.Errorf("error = %q", got)
	}
}

func TestWhisperEmptyAudio(t *testing.T) {
	w, _ := NewWhisper(WhisperConfig{BinaryPath: "echo"})
	if _, err := w.Transcribe(context.Background(), nil); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestWhisperBinaryMissing(t *testing.T) {
	w, _ := NewWhisper(WhisperConfig{BinaryPath: "whisper-binary-that-does-not-exist"})

	if err := w.Health(context.Background()); err == nil {
		t.Error("expected health failure for missing binary")
	}
	if _, err := w.Transcribe(context.Background(), []byte("audio")); err == nil {
		t.Error("expected transcribe failure for missing binary")
	}
}

func TestWhisperRequiresBinary(t *testing.T) {
	if _, err := NewWhisper(WhisperConfig{}); err == nil {
		t.Error("expected error for empty binary path")
	}
}

func TestWhisperTimeout(t *testing.T) {
	bin := fakeWhisper(t, `sleep 30`)

	w, _ := NewWhisper(WhisperConfig{
		BinaryPath: bin,
		Timeout:    100 * time.Millisecond,
	})

	start := time.Now()
	if _, err := w.Transcribe(context.Background(), []byte("audio")); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("transcribe took %v, timeout not applied", elapsed)
	}
}

func TestMockTranscriber(t *testing.T) {
	m := NewMock("two carnitas tacos please")

	result, err := m.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "two carnitas tacos please" {
		t.Errorf("Text = %q", result.Text)
	}
	if m.CallCount() != 1 {
		t.Errorf("CallCount = %d", m.CallCount())
	}

	failErr := errors.New("model not loaded")
	failing := MockWithError(failErr)
	if _, err := failing.Transcribe(context.Background(), []byte("audio")); !errors.Is(err, failErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if err := failing.Health(context.Background()); !errors.Is(err, failErr) {
		t.Errorf("Health = %v", err)
	}
}
