package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MUDRA_DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.FrameInterval != 30*time.Millisecond {
		t.Fatalf("expected frame interval 30ms, got %s", cfg.FrameInterval)
	}
	if cfg.StreamInterval != 50*time.Millisecond {
		t.Fatalf("expected stream interval 50ms, got %s", cfg.StreamInterval)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Fatalf("expected 640x480, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if len(cfg.Translate.PairURLs) != 1 {
		t.Fatalf("expected one default pair backend, got %v", cfg.Translate.PairURLs)
	}
	if cfg.Speech.Command != "" || len(cfg.Speech.Args) != 0 {
		t.Fatalf("expected the built-in speech command, got %q %q", cfg.Speech.Command, cfg.Speech.Args)
	}
	if cfg.Detector.Timeout != 2*time.Second {
		t.Fatalf("expected detector timeout 2s, got %s", cfg.Detector.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MUDRA_DATA_DIR", dir)
	t.Setenv("MUDRA_TARGET_LANGUAGE", "hi")
	t.Setenv("MUDRA_CAMERA_DEVICE", "2")
	t.Setenv("MUDRA_DETECTOR_TIMEOUT", "500ms")
	t.Setenv("MUDRA_TRANSLATE_PAIR_URLS", "http://a/get,http://b/get")
	t.Setenv("MUDRA_TRANSLATE_PAIR_EMAILS", "me@example.com")
	t.Setenv("MUDRA_SPEECH_SPOKEN", "false")
	t.Setenv("MUDRA_SPEECH_COMMAND", "say")
	t.Setenv("MUDRA_SPEECH_ARGS", "-v {lang} {text}")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TargetLanguage != "hi" {
		t.Fatalf("expected target hi, got %q", cfg.TargetLanguage)
	}
	if cfg.Camera.DeviceID != 2 {
		t.Fatalf("expected camera 2, got %d", cfg.Camera.DeviceID)
	}
	if cfg.Detector.Timeout != 500*time.Millisecond {
		t.Fatalf("expected detector timeout 500ms, got %s", cfg.Detector.Timeout)
	}
	if len(cfg.Translate.PairURLs) != 2 || cfg.Translate.PairEmails[0] != "me@example.com" {
		t.Fatalf("unexpected translate config %+v", cfg.Translate)
	}
	if cfg.Speech.Spoken {
		t.Fatal("expected spoken output disabled")
	}
	if cfg.Speech.Command != "say" || strings.Join(cfg.Speech.Args, " ") != "-v {lang} {text}" {
		t.Fatalf("unexpected speech command %q %q", cfg.Speech.Command, cfg.Speech.Args)
	}
	if cfg.DBPath != filepath.Join(dir, "mudra.db") {
		t.Fatalf("expected db under data dir, got %q", cfg.DBPath)
	}
	if cfg.AudioDir() != filepath.Join(dir, "audio") {
		t.Fatalf("unexpected audio dir %q", cfg.AudioDir())
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("MUDRA_FRAME_INTERVAL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("MUDRA_DATA_DIR", t.TempDir())
	base, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad language", func(c *Config) { c.TargetLanguage = "english!" }, "target language"},
		{"zero interval", func(c *Config) { c.StreamInterval = 0 }, "stream interval"},
		{"no backends", func(c *Config) { c.Translate.PairURLs = nil; c.Translate.FallbackURL = "" }, "translation backend"},
		{"args without command", func(c *Config) { c.Speech.Command = ""; c.Speech.Args = []string{"{text}"} }, "speech command"},
		{"no addr", func(c *Config) { c.Addr = "" }, "addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
