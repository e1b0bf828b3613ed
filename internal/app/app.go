// Package app runs the gesture recognition session. While active it owns the
// camera and turns recognized hand poses into translated, spoken words.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/translate"
)

// Loop timing defaults.
const (
	// DefaultFrameInterval is the pause between loop iterations.
	DefaultFrameInterval = 30 * time.Millisecond
	// DefaultReadBackoff is the pause after a failed frame read.
	DefaultReadBackoff = 100 * time.Millisecond
	// DefaultLanguage is the language gesture words are written in and the
	// default target language.
	DefaultLanguage = "en"
)

// ErrInvalidLanguage is returned when a target language code is malformed.
var ErrInvalidLanguage = errors.New("invalid language code")

// Translator resolves a translation through a backend chain. It never fails;
// an untranslated Result carries the original text.
type Translator interface {
	Resolve(ctx context.Context, text, source, target string) translate.Result
}

// Announcer speaks words without blocking the caller.
type Announcer interface {
	Announce(text, lang string) bool
	SetMuted(muted bool)
	Close()
}

// Config holds configuration options for the application.
type Config struct {
	Store      *store.Store
	Camera     capture.Camera
	Detector   detector.Detector
	Translator Translator
	Announcer  Announcer

	// Words overrides the default gesture words when no Store is set.
	Words map[string]string

	SourceLanguage string
	TargetLanguage string
	FrameInterval  time.Duration
	ReadBackoff    time.Duration
	Annotate       bool
}

// StartResult describes the outcome of a successful Start.
type StartResult string

const (
	Started        StartResult = "started"
	AlreadyRunning StartResult = "already_running"
)

// Message returns a human readable acknowledgment.
func (r StartResult) Message() string {
	if r == AlreadyRunning {
		return "Recognition already started"
	}
	return "Recognition started"
}

// StopResult describes the outcome of Stop.
type StopResult string

const (
	Stopped        StopResult = "stopped"
	AlreadyStopped StopResult = "already_stopped"
)

// Message returns a human readable acknowledgment.
func (r StopResult) Message() string {
	if r == AlreadyStopped {
		return "Recognition already stopped"
	}
	return "Recognition stopped"
}

// Recognition is a word emitted by the loop.
type Recognition struct {
	Label       gesture.Label
	Word        string
	Translation string
	Language    string
	Backend     string
	Recognized  bool
	Time        time.Time
}

// Status is a snapshot of the session.
type Status struct {
	Active          bool
	LastWord        string
	LastTranslation string
	Muted           bool
	TargetLanguage  string
	Words           map[string]string
	Unrecognized    uint64
}

// App is the recognition session. Start and Stop may be called from any
// goroutine; the loop is the only writer of the last word and the frame buffer.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	translator Translator
	announcer  Announcer
	words      gesture.WordMapping
	frames     *FrameBuffer

	// lifecycle, guarded by mu
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	active       atomic.Bool
	muted        atomic.Bool
	target       atomic.Value
	unrecognized atomic.Uint64

	stateMu         sync.RWMutex
	lastWord        string
	lastTranslation string

	listenersMu sync.RWMutex
	listeners   map[int]func(Recognition)
	nextID      int
}

// New creates a new App. Camera and Detector are required. With a Store, the
// word mapping, mute flag and target language are loaded from it.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	if config.ReadBackoff <= 0 {
		config.ReadBackoff = DefaultReadBackoff
	}
	if config.SourceLanguage == "" {
		config.SourceLanguage = DefaultLanguage
	}

	words, err := loadWords(config)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:     config,
		camera:     config.Camera,
		detector:   config.Detector,
		translator: config.Translator,
		announcer:  config.Announcer,
		words:      words,
		frames:     &FrameBuffer{},
		listeners:  make(map[int]func(Recognition)),
	}

	target := normalizeCode(config.TargetLanguage)
	muted := false
	if config.Store != nil {
		if saved, err := config.Store.Settings().Get(store.SettingTargetLanguage); err == nil && translate.ValidCode(saved) {
			target = saved
		}
		muted = config.Store.Settings().GetBool(store.SettingMuted, false)
	}
	if !translate.ValidCode(target) {
		target = DefaultLanguage
	}
	a.target.Store(target)
	a.muted.Store(muted)
	if a.announcer != nil {
		a.announcer.SetMuted(muted)
	}

	return a, nil
}

// loadWords builds the word mapping from the store, seeding it with the
// defaults on first use, or from config.Words.
func loadWords(config Config) (gesture.WordMapping, error) {
	table := config.Words
	if config.Store != nil {
		repo := config.Store.Words()
		if err := repo.Seed(gesture.DefaultWords().Table()); err != nil {
			return gesture.WordMapping{}, fmt.Errorf("seed words: %w", err)
		}
		stored, err := repo.Map()
		if err != nil {
			return gesture.WordMapping{}, fmt.Errorf("load words: %w", err)
		}
		table = stored
	}

	words, err := gesture.NewWordMapping(table)
	if err != nil {
		return gesture.WordMapping{}, fmt.Errorf("word mapping: %w", err)
	}
	return words, nil
}

// Start opens the camera and launches the recognition loop. Starting a
// running session reports AlreadyRunning without touching the camera.
func (a *App) Start() (StartResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return AlreadyRunning, nil
	}

	if err := a.camera.Open(); err != nil {
		return "", fmt.Errorf("open camera: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.active.Store(true)

	go a.run(ctx, a.done)

	log.Println("Recognition started")
	return Started, nil
}

// Stop cancels the loop, waits for it to exit and releases the camera. No
// frame is read after Stop returns.
func (a *App) Stop() StopResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel == nil {
		a.active.Store(false)
		return AlreadyStopped
	}

	a.active.Store(false)
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	log.Println("Recognition stopped")
	return Stopped
}

// Close stops the session and releases the detector and announcer.
func (a *App) Close() error {
	a.Stop()

	if a.announcer != nil {
		a.announcer.Close()
	}
	if err := a.detector.Close(); err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}

// IsActive reports whether the loop is running.
func (a *App) IsActive() bool {
	return a.active.Load()
}

// Muted reports whether announcements are suppressed.
func (a *App) Muted() bool {
	return a.muted.Load()
}

// SetMuted enables or disables spoken announcements and persists the choice.
func (a *App) SetMuted(muted bool) {
	a.muted.Store(muted)
	a.applyMute(muted)
}

// ToggleMute flips the mute flag and returns the new value.
func (a *App) ToggleMute() bool {
	for {
		old := a.muted.Load()
		if a.muted.CompareAndSwap(old, !old) {
			a.applyMute(!old)
			return !old
		}
	}
}

func (a *App) applyMute(muted bool) {
	if a.announcer != nil {
		a.announcer.SetMuted(muted)
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingMuted, muted); err != nil {
			log.Printf("Failed to save mute setting: %v", err)
		}
	}
}

// TargetLanguage returns the language recognized words are translated to.
func (a *App) TargetLanguage() string {
	return a.target.Load().(string)
}

// SetTargetLanguage changes the translation target for subsequent words.
func (a *App) SetTargetLanguage(code string) error {
	code = normalizeCode(code)
	if !translate.ValidCode(code) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}

	a.target.Store(code)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingTargetLanguage, code); err != nil {
			log.Printf("Failed to save target language: %v", err)
		}
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// LastWord returns the most recently emitted word.
func (a *App) LastWord() string {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.lastWord
}

func (a *App) setLast(word, translation string) {
	a.stateMu.Lock()
	a.lastWord = word
	a.lastTranslation = translation
	a.stateMu.Unlock()
}

// Words returns a copy of the gesture label to word mapping.
func (a *App) Words() map[string]string {
	return a.words.Table()
}

// Frames returns the buffer holding the latest annotated frame.
func (a *App) Frames() *FrameBuffer {
	return a.frames
}

// Status returns a snapshot of the session state.
func (a *App) Status() Status {
	a.stateMu.RLock()
	word, translation := a.lastWord, a.lastTranslation
	a.stateMu.RUnlock()

	return Status{
		Active:          a.IsActive(),
		LastWord:        word,
		LastTranslation: translation,
		Muted:           a.Muted(),
		TargetLanguage:  a.TargetLanguage(),
		Words:           a.Words(),
		Unrecognized:    a.unrecognized.Load(),
	}
}

// Subscribe registers fn to be called from the loop for every emitted word.
// fn must not block. The returned function removes the subscription.
func (a *App) Subscribe(fn func(Recognition)) (unsubscribe func()) {
	a.listenersMu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.listenersMu.Unlock()

	return func() {
		a.listenersMu.Lock()
		delete(a.listeners, id)
		a.listenersMu.Unlock()
	}
}

func (a *App) notify(rec Recognition) {
	a.listenersMu.RLock()
	defer a.listenersMu.RUnlock()
	for _, fn := range a.listeners {
		fn(rec)
	}
}
