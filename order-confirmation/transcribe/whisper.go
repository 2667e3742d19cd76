// Package transcribe turns recorded caller audio into text
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"voice-order-confirm/order-confirmation/types"
)

var errEmptyAudio = errors.New("recording is empty")

type transcriptionAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Whisper transcribes MP3 audio with the OpenAI transcription endpoint
type Whisper struct {
	api   transcriptionAPI
	model string
}

// NewWhisper creates a transcriber. An empty model selects whisper-1.
func NewWhisper(apiKey, model string) (*Whisper, error) {
	if apiKey == "" {
		return nil, &types.ValidationError{Msg: "OPENAI_API_KEY is required for transcription"}
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{api: openai.NewClient(apiKey), model: model}, nil
}

// Transcribe returns the trimmed transcript of audio
func (w *Whisper) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &types.TransportError{Op: "transcribe", Err: errEmptyAudio}
	}
	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Reader:   bytes.NewReader(audio),
		FilePath: "recording.mp3",
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &types.TransportError{Op: "transcribe", StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		return "", &types.TransportError{Op: "transcribe", Err: err}
	}
	return strings.TrimSpace(resp.Text), nil
}
