// Package stt provides speech-to-text transcription behind a small
// Transcriber interface, backed by a local whisper.cpp binary.
package stt

import "context"

// Transcriber converts recorded audio into text.
type Transcriber interface {
	// Transcribe converts a complete audio clip (WAV) into text.
	Transcribe(ctx context.Context, audio []byte) (*Result, error)

	// Health checks transcriber availability.
	Health(ctx context.Context) error

	// Close releases any resources held by the transcriber.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the transcribed utterance, whitespace-trimmed.
	Text string

	// Confidence is an estimate in [0, 1]. whisper.cpp does not report
	// one, so the whisper transcriber returns a fixed value.
	Confidence float64

	// LatencyMs is the transcription time in milliseconds.
	LatencyMs int64
}
