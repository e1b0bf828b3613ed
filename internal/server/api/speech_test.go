package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/translate"
)

type fakeTranslator struct {
	lastSource string
	lastTarget string
}

func (f *fakeTranslator) Resolve(ctx context.Context, text, source, target string) translate.Result {
	f.lastSource, f.lastTarget = source, target
	if target == "xx" {
		return translate.Result{Text: text}
	}
	return translate.Result{Text: strings.ToUpper(text), Source: "en", Backend: "fake"}
}

type fakeSynth struct {
	err error
}

func (f fakeSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}
	return []byte("ID3" + lang + ":" + text), nil
}

type fakeTranscriber struct {
	text     string
	err      error
	got      []byte
	filename string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	f.got, f.filename = audio, filename
	return f.text, f.err
}

func newSpeechHandler(t *testing.T, tr *fakeTranscriber) (*SpeechHandler, *fakeTranslator, string) {
	t.Helper()
	dir := t.TempDir()
	translator := &fakeTranslator{}
	cfg := SpeechConfig{
		Translator:  translator,
		Synthesizer: fakeSynth{},
		AudioDir:    dir,
	}
	if tr != nil {
		cfg.Transcriber = tr
	}
	return NewSpeechHandler(cfg), translator, dir
}

func TestSpeechHandler_TranslateJSON(t *testing.T) {
	handler, translator, dir := newSpeechHandler(t, nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/translate", `{"text": " hello ", "source": "en", "target": "FR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	var resp translateResponse
	decodeBody(t, rec, &resp)
	if resp.Text != "hello" || resp.Translation != "HELLO" || resp.Target != "fr" || !resp.Translated {
		t.Errorf("unexpected response %+v", resp)
	}
	if translator.lastSource != "en" || translator.lastTarget != "fr" {
		t.Errorf("translator got %s->%s", translator.lastSource, translator.lastTarget)
	}
	if !strings.HasPrefix(resp.AudioURL, "/audio/translation.mp3?v=") {
		t.Errorf("unexpected audio url %q", resp.AudioURL)
	}

	data, err := os.ReadFile(filepath.Join(dir, "translation.mp3"))
	if err != nil || string(data) != "ID3fr:HELLO" {
		t.Errorf("audio file = %q, %v", data, err)
	}
}

func TestSpeechHandler_TranslateForm(t *testing.T) {
	handler, translator, _ := newSpeechHandler(t, nil)

	form := url.Values{"text": {"good night"}, "tgt_lang": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if translator.lastSource != "" || translator.lastTarget != "hi" {
		t.Errorf("translator got %q->%q, want auto->hi", translator.lastSource, translator.lastTarget)
	}
}

func TestSpeechHandler_TranslateDefaultsToAcceptLanguage(t *testing.T) {
	handler, translator, _ := newSpeechHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "de-CH,de;q=0.9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if translator.lastTarget != "de" {
		t.Errorf("expected target de from Accept-Language, got %q", translator.lastTarget)
	}
}

func TestSpeechHandler_TranslateErrors(t *testing.T) {
	handler, _, _ := newSpeechHandler(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text": "   ", "target": "fr"}`},
		{"bad target", `{"text": "hi", "target": "f r"}`},
		{"bad source", `{"text": "hi", "source": "123", "target": "fr"}`},
		{"invalid json", `{"text":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodPost, "/api/translate", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestSpeechHandler_TranslateSynthFailureStillTranslates(t *testing.T) {
	handler := NewSpeechHandler(SpeechConfig{
		Translator:  &fakeTranslator{},
		Synthesizer: fakeSynth{err: errors.New("tts down")},
		AudioDir:    t.TempDir(),
	})

	rec := doRequest(t, handler, http.MethodPost, "/api/translate", `{"text": "hi", "target": "es"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp translateResponse
	decodeBody(t, rec, &resp)
	if resp.Translation != "HI" || resp.AudioURL != "" || resp.AudioError == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSpeechHandler_TTS(t *testing.T) {
	handler, _, _ := newSpeechHandler(t, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/tts?text=namaste&lang=hi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %s", ct)
	}
	if rec.Body.String() != "ID3hi:namaste" {
		t.Errorf("unexpected audio %q", rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/tts?text=", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty text: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/tts?text=hi&lang=%21%21", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid lang: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestSpeechHandler_TTSNotConfigured(t *testing.T) {
	handler := NewSpeechHandler(SpeechConfig{Translator: &fakeTranslator{}})

	rec := doRequest(t, handler, http.MethodGet, "/api/tts?text=hi", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestSpeechHandler_STTMultipart(t *testing.T) {
	tr := &fakeTranscriber{text: "where is the station"}
	handler, translator, _ := newSpeechHandler(t, tr)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("audio", "clip.webm")
	part.Write([]byte("OggS"))
	mw.WriteField("tgt_lang", "ja")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/stt", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}
	if string(tr.got) != "OggS" || tr.filename != "clip.webm" {
		t.Errorf("transcriber got %q (%s)", tr.got, tr.filename)
	}

	var resp translateResponse
	decodeBody(t, rec, &resp)
	if resp.Text != "where is the station" || resp.Translation != "WHERE IS THE STATION" || resp.Target != "ja" {
		t.Errorf("unexpected response %+v", resp)
	}
	if translator.lastSource != "" {
		t.Errorf("voice translation should auto-detect the source, got %q", translator.lastSource)
	}
	if !strings.HasPrefix(resp.AudioURL, "/audio/voice.mp3") {
		t.Errorf("unexpected audio url %q", resp.AudioURL)
	}
}

func TestSpeechHandler_STTBase64(t *testing.T) {
	tr := &fakeTranscriber{text: "hola"}
	handler, _, _ := newSpeechHandler(t, tr)

	encoded := base64.StdEncoding.EncodeToString([]byte("RIFF"))

	t.Run("json", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/api/stt", `{"audio": "`+encoded+`", "target": "en"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		if string(tr.got) != "RIFF" {
			t.Errorf("transcriber got %q", tr.got)
		}
	})

	t.Run("data url form field", func(t *testing.T) {
		form := url.Values{"audio_data": {"data:audio/wav;base64," + encoded}, "tgt_lang": {"fr"}}
		req := httptest.NewRequest(http.MethodPost, "/api/stt", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		if string(tr.got) != "RIFF" {
			t.Errorf("transcriber got %q", tr.got)
		}
	})

	t.Run("audio form field", func(t *testing.T) {
		tr.got = nil
		form := url.Values{"audio": {encoded}, "tgt_lang": {"fr"}}
		req := httptest.NewRequest(http.MethodPost, "/api/stt", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		if string(tr.got) != "RIFF" {
			t.Errorf("transcriber got %q", tr.got)
		}
	})
}

func TestSpeechHandler_STTErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		handler, _, _ := newSpeechHandler(t, nil)
		rec := doRequest(t, handler, http.MethodPost, "/api/stt", `{"audio": "UklGRg=="}`)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})

	t.Run("no audio", func(t *testing.T) {
		handler, _, _ := newSpeechHandler(t, &fakeTranscriber{text: "x"})
		rec := doRequest(t, handler, http.MethodPost, "/api/stt", `{"target": "fr"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("bad base64", func(t *testing.T) {
		handler, _, _ := newSpeechHandler(t, &fakeTranscriber{text: "x"})
		rec := doRequest(t, handler, http.MethodPost, "/api/stt", `{"audio": "***"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("transcriber failure", func(t *testing.T) {
		handler, _, _ := newSpeechHandler(t, &fakeTranscriber{err: errors.New("model missing")})
		rec := doRequest(t, handler, http.MethodPost, "/api/stt", `{"audio": "UklGRg=="}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
		}
	})

	t.Run("silence", func(t *testing.T) {
		handler, _, _ := newSpeechHandler(t, &fakeTranscriber{text: ""})
		rec := doRequest(t, handler, http.MethodPost, "/api/stt", `{"audio": "UklGRg=="}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
		}
	})
}

func TestSpeechHandler_Languages(t *testing.T) {
	handler, _, _ := newSpeechHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.8")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp languagesResponse
	decodeBody(t, rec, &resp)
	if len(resp.Languages) < 100 {
		t.Errorf("expected 100+ languages, got %d", len(resp.Languages))
	}
	if resp.Default != "es" {
		t.Errorf("expected default es, got %q", resp.Default)
	}
}
