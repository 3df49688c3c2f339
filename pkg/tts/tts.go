// Package tts provides a unified interface for text-to-speech providers.
//
// The package supports the OpenAI speech API and the local `say`
// command, both behind the Provider interface so the voice service can
// switch or chain backends without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewOpenAI(
//	    tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    tts.WithVoice(tts.VoiceShimmer),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Your tacos are on the way")
//	// result.Audio contains MP3/WAV audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider availability.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec.
	Encoding Encoding

	// SampleRate in Hz (e.g., 22050, 44100).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// EncodingWAV is PCM in a WAV container, as produced by `say`.
	EncodingWAV Encoding = "wav_22050"

	// EncodingMP3 is MP3 as returned by the OpenAI speech API.
	EncodingMP3 Encoding = "mp3_44100"
)

// ContentType returns the MIME type for HTTP responses.
func (e Encoding) ContentType() string {
	if e == EncodingMP3 {
		return "audio/mpeg"
	}
	return "audio/wav"
}
