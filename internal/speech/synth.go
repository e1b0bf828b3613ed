// Package speech synthesizes translated text to audio files and speaks it aloud.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTTSURL is the Google translate TTS endpoint that returns MP3 audio.
const DefaultTTSURL = "https://translate.google.com/translate_tts"

// maxChunk is the longest text the TTS endpoint accepts per request.
const maxChunk = 100

// ErrEmptyText is returned when there is nothing to synthesize.
var ErrEmptyText = errors.New("no text to synthesize")

// Synthesizer converts text to encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// HTTPSynthesizer fetches MP3 audio from a translate_tts compatible endpoint.
// Long text is split on word boundaries and the MP3 segments are concatenated.
type HTTPSynthesizer struct {
	endpoint string
	client   *http.Client
}

var _ Synthesizer = (*HTTPSynthesizer)(nil)

// NewHTTPSynthesizer creates an HTTPSynthesizer. An empty endpoint uses DefaultTTSURL.
func NewHTTPSynthesizer(endpoint string, client *http.Client) *HTTPSynthesizer {
	if endpoint == "" {
		endpoint = DefaultTTSURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSynthesizer{endpoint: endpoint, client: client}
}

// Synthesize returns MP3 audio for text spoken in lang.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := splitText(text, maxChunk)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}
	if lang == "" {
		lang = "en"
	}

	var audio []byte
	for i, chunk := range chunks {
		part, err := s.fetch(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("synthesize chunk %d: %w", i, err)
		}
		audio = append(audio, part...)
	}
	return audio, nil
}

func (s *HTTPSynthesizer) fetch(ctx context.Context, text, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)
	q.Set("idx", fmt.Sprint(idx))
	q.Set("total", fmt.Sprint(total))
	q.Set("textlen", fmt.Sprint(len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty audio response")
	}
	return data, nil
}

// splitText breaks text into chunks of at most limit runes, preferring word
// boundaries. Words longer than limit are split mid-word.
func splitText(text string, limit int) []string {
	var chunks []string
	var current []rune

	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			chunks = append(chunks, s)
		}
		current = current[:0]
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			chunks = append(chunks, string(w[:limit]))
			w = w[limit:]
		}
		if len(current)+len(w)+1 > limit {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, w...)
	}
	flush()
	return chunks
}

// SaveFile synthesizes text and writes the audio to path, replacing any
// previous file atomically so a browser never reads a partial file.
func SaveFile(ctx context.Context, synth Synthesizer, text, lang, path string) error {
	audio, err := synth.Synthesize(ctx, text, lang)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".speech-*")
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close audio: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename audio: %w", err)
	}
	return nil
}
