// Package transcribe turns recorded speech into text using a whisper-compatible
// HTTP service.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNoAudio is returned when Transcribe is called without audio data.
var ErrNoAudio = errors.New("no audio to transcribe")

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// ensure this satisfies the interface
var _ Transcriber = (*HTTPTranscriber)(nil)

// HTTPTranscriber uploads audio as multipart form data (field "file") and
// expects a JSON body with a "text" field, as served by whisper.cpp's server.
type HTTPTranscriber struct {
	url    string
	client *http.Client
}

type transcription struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// NewHTTPTranscriber creates a transcriber posting to url.
func NewHTTPTranscriber(url string, client *http.Client) (*HTTPTranscriber, error) {
	if url == "" {
		return nil, fmt.Errorf("invalid url for HTTPTranscriber %q", url)
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPTranscriber{url: url, client: client}, nil
}

// Transcribe returns the recognized text with surrounding whitespace removed.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}
	if filename == "" {
		filename = "input.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read transcription: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("transcribe: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result transcription
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("transcribe: %s", result.Error)
	}
	return strings.TrimSpace(result.Text), nil
}
