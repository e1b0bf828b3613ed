// Package server provides the HTTP server for the mudra recognition service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transcribe"
)

// DefaultStreamInterval is how often the MJPEG stream polls for a new frame.
const DefaultStreamInterval = 50 * time.Millisecond

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Session is the recognition session served over HTTP.
type Session interface {
	api.Session
	Frames() *app.FrameBuffer
	Subscribe(fn func(app.Recognition)) (unsubscribe func())
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	AudioDir  string
	Store     *store.Store
	Session   Session

	Translator  api.Translator
	Synthesizer speech.Synthesizer
	Transcriber transcribe.Transcriber

	StreamInterval time.Duration
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config      Config
	mux         *http.ServeMux
	start       time.Time
	feed        *RecognitionFeed
	unsubscribe func()
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.StreamInterval <= 0 {
		config.StreamInterval = DefaultStreamInterval
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Recognition control, stream and live feed need a session
	if s.config.Session != nil {
		recognition := api.NewRecognitionHandler(s.config.Session)
		for _, path := range []string{"/api/status", "/api/recognition/start", "/api/recognition/stop", "/api/mute", "/api/language"} {
			s.mux.Handle(path, recognition)
		}

		stream := NewStreamHandler(s.config.Session.Frames(), s.config.StreamInterval)
		s.mux.Handle("/video_feed", stream)
		s.mux.Handle("/api/stream", stream)

		s.feed = NewRecognitionFeed()
		s.unsubscribe = s.config.Session.Subscribe(s.feed.Publish)
		s.mux.Handle("/api/recognitions/ws", s.feed)
	}

	// Text and voice translation
	if s.config.Translator != nil {
		speechHandler := api.NewSpeechHandler(api.SpeechConfig{
			Translator:  s.config.Translator,
			Synthesizer: s.config.Synthesizer,
			Transcriber: s.config.Transcriber,
			AudioDir:    s.config.AudioDir,
			AudioURL:    "/audio/",
		})
		for _, path := range []string{"/api/translate", "/api/tts", "/api/stt", "/api/languages"} {
			s.mux.Handle(path, speechHandler)
		}
	}

	if s.config.Store != nil {
		history := api.NewHistoryHandler(s.config.Store)
		s.mux.Handle("/api/history", history)
		s.mux.Handle("/api/history/", history)
	}

	if s.config.AudioDir != "" {
		s.mux.Handle("/audio/", http.StripPrefix("/audio/", noCache(http.FileServer(http.Dir(s.config.AudioDir)))))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// noCache marks responses as uncacheable; audio files are rewritten in place.
func noCache(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		h.ServeHTTP(w, r)
	})
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close detaches the server from the session and disconnects feed clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.feed != nil {
		s.feed.Close()
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
