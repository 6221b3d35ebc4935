// Package voice converts spoken answers to text so candidates can respond by
// audio instead of typing.
package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// supportedMimeTypes lists the audio formats accepted by the API.
var supportedMimeTypes = map[string]bool{
	"audio/wav":  true,
	"audio/mpeg": true,
	"audio/webm": true,
	"audio/ogg":  true,
}

// ValidateMimeType rejects unsupported audio formats before any decoding.
func ValidateMimeType(mimeType string) error {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	if !supportedMimeTypes[base] {
		return fmt.Errorf("unsupported audio mime type %q", mimeType)
	}
	return nil
}

// DecodeAudio decodes the base64 payload used by the transcription endpoint.
func DecodeAudio(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}
	return data, nil
}

// StubTranscriber is a deterministic placeholder used until a speech-to-text
// backend is wired in. It reports the payload size so clients can verify the
// round trip.
type StubTranscriber struct{}

// NewStubTranscriber creates a stub transcriber.
func NewStubTranscriber() *StubTranscriber {
	return &StubTranscriber{}
}

// Transcribe validates the input and returns a placeholder transcript.
func (t *StubTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if err := ValidateMimeType(mimeType); err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}
	return fmt.Sprintf("[transcription unavailable: received %d bytes of %s]", len(audio), mimeType), nil
}
