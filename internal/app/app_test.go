package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/translate"
	"gocv.io/x/gocv"
)

type fakeTranslator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTranslator) Resolve(ctx context.Context, text, source, target string) translate.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, source+">"+target+":"+text)
	return translate.Result{Text: "[" + target + "] " + text, Source: source, Backend: "fake"}
}

func (f *fakeTranslator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeAnnouncer struct {
	mu     sync.Mutex
	said   []string
	muted  bool
	closed bool
}

func (f *fakeAnnouncer) Announce(text, lang string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.said = append(f.said, lang+":"+text)
	return true
}

func (f *fakeAnnouncer) SetMuted(muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
}

func (f *fakeAnnouncer) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeAnnouncer) Said() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.said...)
}

type fixture struct {
	app        *App
	camera     *capture.MockCamera
	detector   *detector.MockDetector
	translator *fakeTranslator
	announcer  *fakeAnnouncer
}

func newFixture(t *testing.T, st *store.Store) *fixture {
	t.Helper()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	f := &fixture{
		camera:     capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		detector:   detector.NewMockDetector(),
		translator: &fakeTranslator{},
		announcer:  &fakeAnnouncer{},
	}

	a, err := New(Config{
		Store:          st,
		Camera:         f.camera,
		Detector:       f.detector,
		Translator:     f.translator,
		Announcer:      f.announcer,
		TargetLanguage: "es",
		FrameInterval:  5 * time.Millisecond,
		ReadBackoff:    5 * time.Millisecond,
		Annotate:       true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	f.app = a
	return f
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_RequiresCameraAndDetector(t *testing.T) {
	if _, err := New(Config{Detector: detector.NewMockDetector()}); err == nil {
		t.Error("New() without camera should fail")
	}
	if _, err := New(Config{Camera: capture.NewMockCamera(nil, false)}); err == nil {
		t.Error("New() without detector should fail")
	}
}

func TestApp_StartTwice(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.app.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if res != Started {
		t.Errorf("Start() = %q, want %q", res, Started)
	}

	res, err = f.app.Start()
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if res != AlreadyRunning {
		t.Errorf("second Start() = %q, want %q", res, AlreadyRunning)
	}
	if f.camera.Opens() != 1 {
		t.Errorf("camera opened %d times, want 1", f.camera.Opens())
	}
	if !f.app.Status().Active {
		t.Error("Status().Active = false after Start()")
	}
}

func TestApp_StopWhenStopped(t *testing.T) {
	f := newFixture(t, nil)

	if res := f.app.Stop(); res != AlreadyStopped {
		t.Errorf("Stop() = %q, want %q", res, AlreadyStopped)
	}
	if res := f.app.Stop(); res != AlreadyStopped {
		t.Errorf("repeated Stop() = %q, want %q", res, AlreadyStopped)
	}
	if f.app.IsActive() {
		t.Error("IsActive() = true after Stop()")
	}
}

func TestApp_NoReadsAfterStop(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "frames to be read", func() bool { return f.camera.Reads() >= 3 })

	if res := f.app.Stop(); res != Stopped {
		t.Errorf("Stop() = %q, want %q", res, Stopped)
	}
	if f.camera.IsOpen() {
		t.Error("camera should be released after Stop()")
	}

	reads := f.camera.Reads()
	time.Sleep(50 * time.Millisecond)
	if got := f.camera.Reads(); got != reads {
		t.Errorf("camera read %d more frames after Stop()", got-reads)
	}
}

func TestApp_RestartAfterStop(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 2; i++ {
		if res, err := f.app.Start(); err != nil || res != Started {
			t.Fatalf("Start() #%d = %q, %v", i, res, err)
		}
		if res := f.app.Stop(); res != Stopped {
			t.Fatalf("Stop() #%d = %q", i, res)
		}
	}
	if f.camera.Opens() != 2 {
		t.Errorf("camera opened %d times, want 2", f.camera.Opens())
	}
}

func TestApp_CameraUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	wantErr := errors.New("device busy")
	f.camera.SetOpenError(wantErr)

	if _, err := f.app.Start(); !errors.Is(err, wantErr) {
		t.Fatalf("Start() error = %v, want %v", err, wantErr)
	}
	if f.app.IsActive() {
		t.Error("session should stay stopped when the camera fails to open")
	}
	if res := f.app.Stop(); res != AlreadyStopped {
		t.Errorf("Stop() = %q, want %q", res, AlreadyStopped)
	}
}

func TestApp_EmitsSustainedGestureOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.SetHands([]detector.HandLandmarks{detector.ThumbsUpLandmarks()})

	got := make(chan Recognition, 8)
	unsubscribe := f.app.Subscribe(func(r Recognition) { got <- r })
	defer unsubscribe()

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var rec Recognition
	select {
	case rec = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no recognition emitted")
	}

	if rec.Label != gesture.ThumbsUp || rec.Word != "YES" {
		t.Errorf("recognition = %s/%s, want thumbs_up/YES", rec.Label, rec.Word)
	}
	if rec.Translation != "[es] YES" || rec.Backend != "fake" || !rec.Recognized {
		t.Errorf("recognition = %+v", rec)
	}

	// Let several more identical frames through the loop.
	reads := f.camera.Reads()
	waitFor(t, "more frames", func() bool { return f.camera.Reads() >= reads+5 })
	f.app.Stop()

	if calls := f.translator.Calls(); len(calls) != 1 || calls[0] != "en>es:YES" {
		t.Errorf("translator calls = %v, want [en>es:YES]", calls)
	}
	if said := f.announcer.Said(); len(said) != 1 || said[0] != "es:[es] YES" {
		t.Errorf("announced = %v, want [es:[es] YES]", said)
	}

	status := f.app.Status()
	if status.LastWord != "YES" || status.LastTranslation != "[es] YES" {
		t.Errorf("status = %+v", status)
	}
}

func TestApp_GestureChangeRetriggers(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})

	got := make(chan Recognition, 8)
	f.app.Subscribe(func(r Recognition) { got <- r })

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	want := []string{"NO", "PEACE", "NO"}
	poses := []detector.HandLandmarks{detector.VictoryLandmarks(), detector.FistLandmarks()}
	for i, w := range want {
		select {
		case rec := <-got:
			if rec.Word != w {
				t.Fatalf("recognition %d = %q, want %q", i, rec.Word, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("recognition %d not emitted", i)
		}
		if i < len(poses) {
			f.detector.SetHands([]detector.HandLandmarks{poses[i]})
		}
	}
}

func TestApp_UnrecognizedPoseSpeaksOpen(t *testing.T) {
	f := newFixture(t, nil)
	// index only: no rule matches
	f.detector.SetHands([]detector.HandLandmarks{detector.PoseLandmarks(false, true, false, false, false)})

	got := make(chan Recognition, 1)
	f.app.Subscribe(func(r Recognition) {
		select {
		case got <- r:
		default:
		}
	})

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case rec := <-got:
		if rec.Label != gesture.Open || rec.Word != "HELLO" || rec.Recognized {
			t.Errorf("recognition = %+v, want unrecognized open/HELLO", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no recognition emitted")
	}

	if f.app.Status().Unrecognized == 0 {
		t.Error("Status().Unrecognized should count fallback classifications")
	}
}

func TestApp_MutedSkipsAnnouncement(t *testing.T) {
	f := newFixture(t, nil)
	f.app.SetMuted(true)
	f.detector.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "last word", func() bool { return f.app.LastWord() == "HELLO" })
	f.app.Stop()

	if said := f.announcer.Said(); len(said) != 0 {
		t.Errorf("announced %v while muted", said)
	}
}

func TestApp_SameLanguageSkipsTranslation(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.app.SetTargetLanguage("EN"); err != nil {
		t.Fatalf("SetTargetLanguage() error = %v", err)
	}
	f.detector.SetHands([]detector.HandLandmarks{detector.ILoveYouLandmarks()})

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "last word", func() bool { return f.app.LastWord() == "I LOVE YOU" })
	f.app.Stop()

	if calls := f.translator.Calls(); len(calls) != 0 {
		t.Errorf("translator called %v for source language target", calls)
	}
	if f.app.Status().LastTranslation != "I LOVE YOU" {
		t.Errorf("LastTranslation = %q", f.app.Status().LastTranslation)
	}
}

func TestApp_DetectorErrorsDoNotStopLoop(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.SetError(errors.New("model crashed"))

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "detector retries", func() bool { return f.detector.Calls() >= 5 })

	f.detector.SetError(nil)
	f.detector.SetHands([]detector.HandLandmarks{detector.VictoryLandmarks()})
	waitFor(t, "recovery", func() bool { return f.app.LastWord() == "PEACE" })
}

func TestApp_ReadFailuresBackOff(t *testing.T) {
	camera := capture.NewMockCamera(nil, false)
	a, err := New(Config{
		Camera:        camera,
		Detector:      detector.NewMockDetector(),
		FrameInterval: time.Millisecond,
		ReadBackoff:   20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	a.Stop()

	if reads := camera.Reads(); reads == 0 || reads > 10 {
		t.Errorf("camera read %d times in 100ms with 20ms backoff", reads)
	}
	if _, seq := a.Frames().Latest(); seq != 0 {
		t.Error("no frame should be published when reads fail")
	}
}

func TestApp_PublishesJPEG(t *testing.T) {
	f := newFixture(t, nil)
	f.detector.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "a frame", func() bool {
		_, seq := f.app.Frames().Latest()
		return seq > 0
	})

	data, _ := f.app.Frames().Latest()
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("frame does not start with JPEG magic: % x", data[:min(4, len(data))])
	}
}

func TestApp_TargetLanguage(t *testing.T) {
	f := newFixture(t, nil)

	if got := f.app.TargetLanguage(); got != "es" {
		t.Errorf("TargetLanguage() = %q, want es", got)
	}
	for _, code := range []string{"not a code", "und", "root"} {
		if err := f.app.SetTargetLanguage(code); !errors.Is(err, ErrInvalidLanguage) {
			t.Errorf("SetTargetLanguage(%q) error = %v, want ErrInvalidLanguage", code, err)
		}
	}
	if err := f.app.SetTargetLanguage(" FR "); err != nil {
		t.Fatalf("SetTargetLanguage() error = %v", err)
	}
	if got := f.app.TargetLanguage(); got != "fr" {
		t.Errorf("TargetLanguage() = %q, want fr", got)
	}
}

func TestApp_ToggleMute(t *testing.T) {
	f := newFixture(t, nil)

	if !f.app.ToggleMute() {
		t.Error("first ToggleMute() should mute")
	}
	if !f.announcer.muted {
		t.Error("announcer should be muted")
	}
	if f.app.ToggleMute() {
		t.Error("second ToggleMute() should unmute")
	}
	if f.app.Status().Muted {
		t.Error("Status().Muted = true after unmuting")
	}
}

func TestApp_PersistsSettingsAndHistory(t *testing.T) {
	st := newTestStore(t)

	f := newFixture(t, st)
	f.app.SetMuted(true)
	if err := f.app.SetTargetLanguage("de"); err != nil {
		t.Fatalf("SetTargetLanguage() error = %v", err)
	}
	f.detector.SetHands([]detector.HandLandmarks{detector.VictoryLandmarks()})

	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "last word", func() bool { return f.app.LastWord() == "PEACE" })
	f.app.Stop()

	recs, err := st.Recognitions().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Label != "victory" || recs[0].Translation != "[de] PEACE" || recs[0].Language != "de" {
		t.Errorf("history = %+v", recs)
	}

	// A new session over the same store restores the preferences.
	again := newFixture(t, st)
	if !again.app.Muted() {
		t.Error("mute setting not restored")
	}
	if got := again.app.TargetLanguage(); got != "de" {
		t.Errorf("TargetLanguage() = %q, want de", got)
	}
}

func TestApp_WordsFromStore(t *testing.T) {
	st := newTestStore(t)
	if err := st.Words().Set("fist", "STOP"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	f := newFixture(t, st)
	words := f.app.Words()
	if words["fist"] != "STOP" {
		t.Errorf("fist = %q, want STOP", words["fist"])
	}
	if words["open"] != "HELLO" {
		t.Errorf("open = %q, want default HELLO", words["open"])
	}
	if len(words) != len(gesture.Labels()) {
		t.Errorf("mapping has %d words, want %d", len(words), len(gesture.Labels()))
	}
}

func TestApp_CloseClosesAnnouncer(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.app.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if f.app.IsActive() {
		t.Error("Close() should stop the session")
	}
	if !f.announcer.closed {
		t.Error("Close() should close the announcer")
	}
}

func TestFrameBuffer(t *testing.T) {
	var b FrameBuffer

	if data, seq := b.Latest(); data != nil || seq != 0 {
		t.Errorf("empty buffer = %v, %d", data, seq)
	}

	b.Set(nil)
	if _, seq := b.Latest(); seq != 0 {
		t.Error("Set(nil) should be ignored")
	}

	b.Set([]byte{1})
	b.Set([]byte{2})
	data, seq := b.Latest()
	if seq != 2 || !bytes.Equal(data, []byte{2}) {
		t.Errorf("Latest() = %v, %d; want [2], 2", data, seq)
	}
}

func TestResultMessages(t *testing.T) {
	if Started.Message() == AlreadyRunning.Message() {
		t.Error("start messages should differ")
	}
	if Stopped.Message() == AlreadyStopped.Message() {
		t.Error("stop messages should differ")
	}
}
