package voice

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMimeType(t *testing.T) {
	tests := []struct {
		mimeType string
		wantErr  bool
	}{
		{"audio/wav", false},
		{"audio/mpeg", false},
		{"audio/webm;codecs=opus", false},
		{"AUDIO/OGG", false},
		{"video/mp4", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			err := ValidateMimeType(tt.mimeType)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeAudio(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))
	data, err := DecodeAudio(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)

	_, err = DecodeAudio("not base64!!!")
	assert.Error(t, err)

	_, err = DecodeAudio("")
	assert.Error(t, err)
}

func TestStubTranscriber(t *testing.T) {
	tr := NewStubTranscriber()

	text, err := tr.Transcribe(context.Background(), []byte("xxxx"), "audio/wav")
	require.NoError(t, err)
	assert.Contains(t, text, "4 bytes")

	_, err = tr.Transcribe(context.Background(), []byte("xxxx"), "video/mp4")
	assert.Error(t, err)

	_, err = tr.Transcribe(context.Background(), nil, "audio/wav")
	assert.Error(t, err)
}
