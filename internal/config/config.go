// Package config loads mudra's runtime configuration from MUDRA_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/mudra/internal/translate"
)

// Config is the full runtime configuration.
type Config struct {
	Addr    string `env:"MUDRA_ADDR" envDefault:":8080"`
	DataDir string `env:"MUDRA_DATA_DIR"`
	DBPath  string `env:"MUDRA_DB"`
	WebDir  string `env:"MUDRA_WEB_DIR"`
	Tray    bool   `env:"MUDRA_TRAY" envDefault:"false"`

	// AutoStart begins recognition as soon as the server is up.
	AutoStart bool `env:"MUDRA_AUTOSTART" envDefault:"false"`

	TargetLanguage string        `env:"MUDRA_TARGET_LANGUAGE" envDefault:"en"`
	FrameInterval  time.Duration `env:"MUDRA_FRAME_INTERVAL" envDefault:"30ms"`
	ReadBackoff    time.Duration `env:"MUDRA_READ_BACKOFF" envDefault:"100ms"`
	StreamInterval time.Duration `env:"MUDRA_STREAM_INTERVAL" envDefault:"50ms"`
	Annotate       bool          `env:"MUDRA_ANNOTATE" envDefault:"true"`

	Camera    CameraConfig    `envPrefix:"MUDRA_CAMERA_"`
	Detector  DetectorConfig  `envPrefix:"MUDRA_DETECTOR_"`
	Translate TranslateConfig `envPrefix:"MUDRA_TRANSLATE_"`
	Speech    SpeechConfig    `envPrefix:"MUDRA_SPEECH_"`

	// STTURL is a whisper-compatible transcription endpoint. Voice
	// translation is disabled when empty.
	STTURL string `env:"MUDRA_STT_URL"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID int `env:"DEVICE" envDefault:"0"`
	Width    int `env:"WIDTH" envDefault:"640"`
	Height   int `env:"HEIGHT" envDefault:"480"`
	FPS      int `env:"FPS" envDefault:"15"`
}

// DetectorConfig configures the MediaPipe landmark service.
type DetectorConfig struct {
	Script          string        `env:"SCRIPT"`
	Python          string        `env:"PYTHON"`
	MinConfidence   float64       `env:"MIN_CONFIDENCE" envDefault:"0.7"`
	MinTrackingConf float64       `env:"MIN_TRACKING_CONFIDENCE" envDefault:"0.5"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"2s"`
}

// TranslateConfig lists the translation backends in the order they are tried.
type TranslateConfig struct {
	PairURLs    []string      `env:"PAIR_URLS" envSeparator:"," envDefault:"https://api.mymemory.translated.net/get"`
	PairEmails  []string      `env:"PAIR_EMAILS" envSeparator:","`
	DetectURL   string        `env:"DETECT_URL" envDefault:"https://libretranslate.com/detect"`
	DetectKey   string        `env:"DETECT_API_KEY"`
	FallbackURL string        `env:"FALLBACK_URL" envDefault:"https://translate.googleapis.com/translate_a/single"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"8s"`
}

// SpeechConfig configures synthesized and spoken output.
type SpeechConfig struct {
	TTSURL    string        `env:"TTS_URL" envDefault:"https://translate.google.com/translate_tts"`
	Spoken    bool          `env:"SPOKEN" envDefault:"true"`
	Command   string        `env:"COMMAND"` // empty uses espeak-ng
	Args      []string      `env:"ARGS" envSeparator:" "`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"10s"`
	QueueSize int           `env:"QUEUE_SIZE" envDefault:"4"`
}

// Load parses the environment and fills in paths derived from DataDir.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve data directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".mudra")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "mudra.db")
	}
	return nil
}

// AudioDir is where synthesized speech files are written for the browser.
func (c Config) AudioDir() string {
	return filepath.Join(c.DataDir, "audio")
}

// Validate checks values that the environment parser cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if !translate.ValidCode(c.TargetLanguage) {
		errs = append(errs, fmt.Errorf("invalid target language %q", c.TargetLanguage))
	}
	for name, d := range map[string]time.Duration{
		"frame interval":  c.FrameInterval,
		"read backoff":    c.ReadBackoff,
		"stream interval": c.StreamInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if len(c.Translate.PairURLs) == 0 && c.Translate.FallbackURL == "" {
		errs = append(errs, errors.New("at least one translation backend is required"))
	}
	if c.Speech.Command == "" && len(c.Speech.Args) > 0 {
		errs = append(errs, errors.New("speech args need a speech command"))
	}
	return errors.Join(errs...)
}
