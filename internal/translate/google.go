package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGoogleURL is the public translate endpoint used by browser extensions.
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// GeneralBackend translates through the Google "gtx" endpoint, which accepts
// "auto" as the source language.
type GeneralBackend struct {
	endpoint string
	client   *http.Client
}

var _ Translator = (*GeneralBackend)(nil)

// NewGeneralBackend creates a GeneralBackend. An empty endpoint uses DefaultGoogleURL.
func NewGeneralBackend(endpoint string, client *http.Client) *GeneralBackend {
	if endpoint == "" {
		endpoint = DefaultGoogleURL
	}
	return &GeneralBackend{
		endpoint: endpoint,
		client:   newClient(client),
	}
}

func (b *GeneralBackend) Name() string {
	return "google(" + b.endpoint + ")"
}

// Translate sends text with source (or "auto") and target.
func (b *GeneralBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = AutoSource
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequest(http.MethodGet, b.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	var raw []json.RawMessage
	if err := doJSON(ctx, b.client, req, &raw); err != nil {
		return "", err
	}
	return parseGoogleSentences(raw)
}

// parseGoogleSentences joins the translated fragments of the first element,
// shaped [["translated","original",...], ...].
func parseGoogleSentences(raw []json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", ErrNoResult
	}

	var sentences [][]any
	if err := json.Unmarshal(raw[0], &sentences); err != nil {
		return "", fmt.Errorf("decode sentences: %w", err)
	}

	var sb strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		if part, ok := s[0].(string); ok {
			sb.WriteString(part)
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoResult
	}
	return sb.String(), nil
}
