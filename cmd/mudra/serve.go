package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transcribe"
	"github.com/ayusman/mudra/internal/translate"
	"github.com/ayusman/mudra/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recognition service and web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&flagAddr, "addr", "", "Listen address (default :8080)")
	f.IntVar(&flagCamera, "camera", 0, "Camera device index")
	f.StringVar(&flagWeb, "web", "", "Static web directory")
	f.BoolVar(&flagTray, "tray", false, "Show the system tray menu")
	f.BoolVar(&flagStart, "start", false, "Start recognition immediately")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg config.Config) error {
	fmt.Println("Mudra - Hand Gesture Translator")

	if err := os.MkdirAll(cfg.AudioDir(), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dispatcher := newDispatcher(cfg.Translate)
	synth := speech.NewHTTPSynthesizer(cfg.Speech.TTSURL, &http.Client{Timeout: cfg.Speech.Timeout})

	speakers := speech.Speakers{
		speech.NewFileSpeaker(synth, filepath.Join(cfg.AudioDir(), "gesture.mp3")),
	}
	if cfg.Speech.Spoken {
		speakers = append(speakers, newSpeaker(cfg.Speech))
	}

	session, err := app.New(app.Config{
		Store: st,
		Camera: capture.NewCamera(capture.Config{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
		}),
		Detector:       newDetector(cfg.Detector),
		Translator:     dispatcher,
		Announcer:      speech.NewAnnouncer(speakers, cfg.Speech.QueueSize),
		TargetLanguage: cfg.TargetLanguage,
		FrameInterval:  cfg.FrameInterval,
		ReadBackoff:    cfg.ReadBackoff,
		Annotate:       cfg.Annotate,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	var transcriber transcribe.Transcriber
	if cfg.STTURL != "" {
		t, err := transcribe.NewHTTPTranscriber(cfg.STTURL, &http.Client{Timeout: cfg.Speech.Timeout})
		if err != nil {
			return fmt.Errorf("transcriber: %w", err)
		}
		transcriber = t
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:      webDir,
		AudioDir:       cfg.AudioDir(),
		Store:          st,
		Session:        session,
		Translator:     dispatcher,
		Synthesizer:    synth,
		Transcriber:    transcriber,
		StreamInterval: cfg.StreamInterval,
	})
	defer srv.Close()

	if cfg.AutoStart {
		if _, err := session.Start(); err != nil {
			log.Printf("Auto start failed: %v", err)
		}
	}

	fmt.Printf("Starting server on %s\n", cfg.Addr)

	if !cfg.Tray {
		return srv.Run(ctx, cfg.Addr)
	}
	return runWithTray(ctx, srv, session, cfg.Addr)
}

func openStore(cfg config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	return st, nil
}

// newDispatcher builds the translation chain: the pair backends, then
// detection, then the general fallback.
func newDispatcher(c config.TranslateConfig) *translate.Dispatcher {
	client := &http.Client{Timeout: c.Timeout}

	var detect translate.LanguageDetector
	if c.DetectURL != "" {
		detect = translate.NewLibreDetector(c.DetectURL, c.DetectKey, client)
	}
	var fallback translate.Translator
	if c.FallbackURL != "" {
		fallback = translate.NewGeneralBackend(c.FallbackURL, client)
	}

	return translate.NewDispatcher(translate.NewPairBackends(c.PairURLs, c.PairEmails, client), detect, fallback)
}

// newSpeaker returns the configured speech command, or espeak-ng.
func newSpeaker(c config.SpeechConfig) *speech.CommandSpeaker {
	if c.Command == "" {
		return speech.NewEspeakSpeaker(c.Timeout)
	}
	return speech.NewCommandSpeaker(c.Command, c.Args, c.Timeout)
}

// newDetector returns the MediaPipe detector, or a detector that never finds
// a hand when the landmark service is unavailable.
func newDetector(c config.DetectorConfig) detector.Detector {
	dc := detector.DefaultConfig()
	dc.ScriptPath = c.Script
	dc.Python = c.Python
	dc.MinConfidence = c.MinConfidence
	dc.MinTrackingConf = c.MinTrackingConf
	dc.RequestTimeout = c.Timeout

	d, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		log.Printf("Hand detection disabled: %v", err)
		return detector.NoHands{}
	}
	return d
}

// runWithTray serves in the background while the tray owns the main thread.
func runWithTray(ctx context.Context, srv *server.Server, session *app.App, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
		cancel()
	}()

	t := tray.New(session)
	t.OnToggle(func(active bool) {
		if !active {
			session.Stop()
			return
		}
		if _, err := session.Start(); err != nil {
			log.Printf("Failed to start recognition: %v", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(browserURL(addr)); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(cancel)

	unsubscribe := session.Subscribe(func(rec app.Recognition) {
		t.SetLastWord(rec.Translation)
	})
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	cancel()

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
