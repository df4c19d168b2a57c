// Package transcriber turns call recordings into transcripts using the
// Gemini audio understanding API.
package transcriber

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"google.golang.org/genai"

	"salesclutch/platform/logger"
)

const transcriptionPrompt = `Transcribe this sales call recording verbatim. Label the speakers "Rep:" and "Prospect:" where they can be told apart, otherwise "Speaker 1:" and "Speaker 2:". Output only the transcript.`

// mimeTypes maps recording extensions to the MIME types the API accepts.
var mimeTypes = map[string]string{
	".mp3":  "audio/mp3",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".mpeg": "audio/mpeg",
	".mpga": "audio/mpeg",
	".webm": "audio/webm",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
}

type Transcriber struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func New(ctx context.Context, apiKey, model string, log *logger.Logger) (*Transcriber, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Transcriber{client: client, model: model, log: log}, nil
}

// Transcribe reads the whole recording and returns its transcript.
func (t *Transcriber) Transcribe(ctx context.Context, fileName string, audio io.Reader) (string, error) {
	mimeType, err := MimeTypeFor(fileName)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("failed to read recording: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("recording %s is empty", fileName)
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromText(transcriptionPrompt),
			genai.NewPartFromBytes(data, mimeType),
		},
	}}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	transcript := collectText(resp)
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcription of %s produced no text", fileName)
	}

	return transcript, nil
}

// MimeTypeFor resolves a recording extension to its MIME type.
func MimeTypeFor(fileName string) (string, error) {
	ext := strings.ToLower(path.Ext(fileName))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported recording format %q", ext)
	}
	return mimeType, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
