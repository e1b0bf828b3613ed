package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/translate"
)

// Session is the recognition session controlled over HTTP.
type Session interface {
	Start() (app.StartResult, error)
	Stop() app.StopResult
	Status() app.Status
	SetMuted(muted bool)
	ToggleMute() bool
	SetTargetLanguage(code string) error
}

// RecognitionHandler serves session status and control endpoints:
//
//	GET  /api/status
//	POST /api/recognition/start
//	POST /api/recognition/stop
//	POST /api/mute      toggles, or sets {"muted": bool}
//	POST /api/language  {"language": "es"}
type RecognitionHandler struct {
	session Session
}

// NewRecognitionHandler creates a RecognitionHandler for session.
func NewRecognitionHandler(session Session) *RecognitionHandler {
	return &RecognitionHandler{session: session}
}

type statusResponse struct {
	Active          bool              `json:"active"`
	LastWord        string            `json:"last_word"`
	LastTranslation string            `json:"last_translation"`
	Muted           bool              `json:"muted"`
	TargetLanguage  string            `json:"target_language"`
	Words           map[string]string `json:"words"`
	Unrecognized    uint64            `json:"unrecognized"`
}

type muteRequest struct {
	Muted *bool `json:"muted"`
}

type muteResponse struct {
	ackResponse
	Muted bool `json:"muted"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type languageResponse struct {
	ackResponse
	Language string `json:"language"`
	Name     string `json:"name,omitempty"`
}

// ServeHTTP implements the http.Handler interface and routes requests by path.
func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/status":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/recognition/start":
		h.start(w, r)
	case "/api/recognition/stop":
		h.stop(w, r)
	case "/api/mute":
		h.mute(w, r)
	case "/api/language":
		h.language(w, r)
	default:
		http.NotFound(w, r)
	}
}

// status handles GET /api/status.
func (h *RecognitionHandler) status(w http.ResponseWriter, r *http.Request) {
	st := h.session.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Active:          st.Active,
		LastWord:        st.LastWord,
		LastTranslation: st.LastTranslation,
		Muted:           st.Muted,
		TargetLanguage:  st.TargetLanguage,
		Words:           st.Words,
		Unrecognized:    st.Unrecognized,
	})
}

// start handles POST /api/recognition/start.
func (h *RecognitionHandler) start(w http.ResponseWriter, r *http.Request) {
	res, err := h.session.Start()
	if err != nil {
		log.Printf("Failed to start recognition: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, ackResponse{Status: "error", Message: "Camera unavailable: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: string(res), Message: res.Message()})
}

// stop handles POST /api/recognition/stop.
func (h *RecognitionHandler) stop(w http.ResponseWriter, r *http.Request) {
	res := h.session.Stop()
	writeJSON(w, http.StatusOK, ackResponse{Status: string(res), Message: res.Message()})
}

// mute handles POST /api/mute.
func (h *RecognitionHandler) mute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var muted bool
	if req.Muted != nil {
		muted = *req.Muted
		h.session.SetMuted(muted)
	} else {
		muted = h.session.ToggleMute()
	}

	message := "Speech unmuted"
	if muted {
		message = "Speech muted"
	}
	writeJSON(w, http.StatusOK, muteResponse{
		ackResponse: ackResponse{Status: "ok", Message: message},
		Muted:       muted,
	})
}

// language handles POST /api/language.
func (h *RecognitionHandler) language(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}

	if err := h.session.SetTargetLanguage(req.Language); err != nil {
		if errors.Is(err, app.ErrInvalidLanguage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set language")
		return
	}

	lang := h.session.Status().TargetLanguage
	resp := languageResponse{
		ackResponse: ackResponse{Status: "ok", Message: "Target language set to " + lang},
		Language:    lang,
	}
	if name, ok := translate.Lookup(lang); ok {
		resp.Name = name
		resp.Message = "Target language set to " + name
	}
	writeJSON(w, http.StatusOK, resp)
}
