package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/transcribe"
	"github.com/ayusman/mudra/internal/translate"
)

const (
	// maxAudioBytes caps uploaded recordings.
	maxAudioBytes = 32 << 20
	// defaultLanguage is used when neither the request nor Accept-Language name one.
	defaultLanguage = "en"
	// synthTimeout bounds synthesis for a single request.
	synthTimeout = 20 * time.Second
)

// Translator resolves translations through the backend chain.
type Translator interface {
	Resolve(ctx context.Context, text, source, target string) translate.Result
}

// SpeechConfig holds the collaborators of a SpeechHandler. Synthesizer and
// Transcriber are optional; the endpoints that need them answer 503 without.
type SpeechConfig struct {
	Translator  Translator
	Synthesizer speech.Synthesizer
	Transcriber transcribe.Transcriber
	// AudioDir is where synthesized files are written; AudioURL is the URL
	// prefix they are served under.
	AudioDir string
	AudioURL string
}

// SpeechHandler serves the text and voice translation endpoints:
//
//	POST /api/translate  text -> translation -> audio file
//	GET  /api/tts        text -> MP3
//	POST /api/stt        recording -> transcript -> translation -> audio file
//	GET  /api/languages
type SpeechHandler struct {
	config SpeechConfig
}

// NewSpeechHandler creates a SpeechHandler.
func NewSpeechHandler(config SpeechConfig) *SpeechHandler {
	if config.AudioURL == "" {
		config.AudioURL = "/audio/"
	}
	return &SpeechHandler{config: config}
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
	Source      string `json:"source,omitempty"`
	Target      string `json:"target"`
	Backend     string `json:"backend,omitempty"`
	Translated  bool   `json:"translated"`
	AudioURL    string `json:"audio_url,omitempty"`
	AudioError  string `json:"audio_error,omitempty"`
}

type sttRequest struct {
	Audio  string `json:"audio"`
	Target string `json:"target"`
}

type languageItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type languagesResponse struct {
	Languages []languageItem `json:"languages"`
	Default   string         `json:"default"`
}

// ServeHTTP implements the http.Handler interface and routes requests by path.
func (h *SpeechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/translate":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.translate(w, r)
	case "/api/stt":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stt(w, r)
	case "/api/tts":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.tts(w, r)
	case "/api/languages":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.languages(w, r)
	default:
		http.NotFound(w, r)
	}
}

// translate handles POST /api/translate. It accepts JSON or the form fields
// text, src_lang and tgt_lang.
func (h *SpeechHandler) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form")
			return
		}
		req.Text = r.PostForm.Get("text")
		req.Source = r.PostForm.Get("src_lang")
		req.Target = r.PostForm.Get("tgt_lang")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	source := strings.ToLower(strings.TrimSpace(req.Source))
	if source != "" && source != translate.AutoSource && !translate.ValidCode(source) {
		writeError(w, http.StatusBadRequest, "Invalid source language")
		return
	}
	target, ok := h.target(r, req.Target)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid target language")
		return
	}

	writeJSON(w, http.StatusOK, h.translateAndSpeak(r.Context(), text, source, target, "translation.mp3"))
}

// stt handles POST /api/stt. The recording is sent as a multipart file
// named "audio", a base64 form field "audio_data", or JSON {"audio": base64}.
func (h *SpeechHandler) stt(w http.ResponseWriter, r *http.Request) {
	if h.config.Transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "Voice translation is not configured")
		return
	}

	audio, filename, targetParam, err := readAudio(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, ok := h.target(r, targetParam)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid target language")
		return
	}

	transcript, err := h.config.Transcriber.Transcribe(r.Context(), audio, filename)
	if err != nil {
		log.Printf("Transcription failed: %v", err)
		writeError(w, http.StatusBadGateway, "Transcription failed")
		return
	}
	if transcript == "" {
		writeError(w, http.StatusUnprocessableEntity, "No speech recognized")
		return
	}

	writeJSON(w, http.StatusOK, h.translateAndSpeak(r.Context(), transcript, "", target, "voice.mp3"))
}

// tts handles GET /api/tts?text=&lang= and returns MP3 audio.
func (h *SpeechHandler) tts(w http.ResponseWriter, r *http.Request) {
	if h.config.Synthesizer == nil {
		writeError(w, http.StatusServiceUnavailable, "Speech synthesis is not configured")
		return
	}

	text := r.URL.Query().Get("text")
	lang := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang")))
	if lang == "" {
		lang = defaultLanguage
	}
	if !translate.ValidCode(lang) {
		writeError(w, http.StatusBadRequest, "Invalid language")
		return
	}

	audio, err := h.config.Synthesizer.Synthesize(r.Context(), text, lang)
	if err != nil {
		if errors.Is(err, speech.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, "No text provided")
			return
		}
		log.Printf("Speech synthesis failed: %v", err)
		writeError(w, http.StatusBadGateway, "Speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// languages handles GET /api/languages.
func (h *SpeechHandler) languages(w http.ResponseWriter, r *http.Request) {
	langs := translate.Languages()
	resp := languagesResponse{
		Languages: make([]languageItem, 0, len(langs)),
		Default:   translate.MatchAccept(r.Header.Get("Accept-Language"), defaultLanguage),
	}
	for _, l := range langs {
		resp.Languages = append(resp.Languages, languageItem{Code: l.Code, Name: l.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

// target returns the requested target language, falling back to the best
// Accept-Language match.
func (h *SpeechHandler) target(r *http.Request, requested string) (string, bool) {
	target := strings.ToLower(strings.TrimSpace(requested))
	if target == "" {
		target = translate.MatchAccept(r.Header.Get("Accept-Language"), defaultLanguage)
	}
	return target, translate.ValidCode(target)
}

func (h *SpeechHandler) translateAndSpeak(ctx context.Context, text, source, target, audioName string) translateResponse {
	res := h.config.Translator.Resolve(ctx, text, source, target)

	resp := translateResponse{
		Text:        text,
		Translation: res.Text,
		Source:      res.Source,
		Target:      target,
		Backend:     res.Backend,
		Translated:  res.Translated(),
	}

	if h.config.Synthesizer != nil && h.config.AudioDir != "" {
		synthCtx, cancel := context.WithTimeout(ctx, synthTimeout)
		defer cancel()

		path := filepath.Join(h.config.AudioDir, audioName)
		if err := speech.SaveFile(synthCtx, h.config.Synthesizer, res.Text, target, path); err != nil {
			log.Printf("Speech synthesis failed: %v", err)
			resp.AudioError = "Speech synthesis failed"
		} else {
			resp.AudioURL = h.config.AudioURL + audioName + "?v=" + strconv.FormatInt(time.Now().UnixNano(), 10)
		}
	}

	return resp
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// readAudio extracts the recording and optional target language from r.
func readAudio(w http.ResponseWriter, r *http.Request) (audio []byte, filename, target string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)

	if isJSON(r) {
		var req sttRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return nil, "", "", errors.New("Invalid JSON")
		}
		audio, err := decodeBase64Audio(req.Audio)
		return audio, "", req.Target, err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			return nil, "", "", errors.New("Invalid multipart form")
		}
		target = r.FormValue("tgt_lang")
		if file, header, err := r.FormFile("audio"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, "", "", errors.New("Failed to read audio")
			}
			if len(data) == 0 {
				return nil, "", "", errors.New("No audio provided")
			}
			return data, header.Filename, target, nil
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, "", "", errors.New("Invalid form")
	}

	encoded := r.FormValue("audio")
	if encoded == "" {
		encoded = r.FormValue("audio_data")
	}
	audio, err = decodeBase64Audio(encoded)
	return audio, "", r.FormValue("tgt_lang"), err
}

// decodeBase64Audio decodes raw or data-URL base64 audio.
func decodeBase64Audio(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New("No audio provided")
	}
	if i := strings.Index(data, ","); strings.HasPrefix(data, "data:") && i >= 0 {
		data = data[i+1:]
	}
	audio, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.New("Audio decode error")
	}
	if len(audio) == 0 {
		return nil, errors.New("No audio provided")
	}
	return audio, nil
}
