package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"gocv.io/x/gocv"
)

// loopState is owned by a single run of the loop.
type loopState struct {
	debounce   gesture.Debouncer
	readErrs   int
	detectErrs int
}

// run is the recognition loop. Each iteration:
// 1. Read a frame; on failure wait ReadBackoff and retry
// 2. Detect at most one hand
// 3. Classify it and map the label to a word
// 4. On a new word: translate, announce, record and notify
// 5. Annotate the frame and publish it as JPEG
// 6. Wait FrameInterval
func (a *App) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var st loopState
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		delay := a.config.FrameInterval
		if !a.step(ctx, &st) {
			delay = a.config.ReadBackoff
		}
		timer.Reset(delay)
	}
}

// step processes one frame and reports whether a frame was read.
func (a *App) step(ctx context.Context, st *loopState) bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		if st.readErrs == 0 {
			log.Printf("Error reading frame: %v", err)
		}
		st.readErrs++
		return false
	}
	defer frame.Close()

	if st.readErrs > 0 {
		log.Printf("Camera recovered after %d failed reads", st.readErrs)
		st.readErrs = 0
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		if st.detectErrs == 0 {
			log.Printf("Error detecting hands: %v", err)
		}
		st.detectErrs++
	} else {
		st.detectErrs = 0
		if hand, ok := detector.First(hands); ok {
			a.handleHand(ctx, hand, &st.debounce)
			if a.config.Annotate {
				detector.Annotate(frame, hand)
			}
		}
	}

	if a.config.Annotate {
		detector.Caption(frame, a.LastWord())
	}
	a.publish(frame)
	return true
}

// handleHand classifies hand and emits its word when it changed.
func (a *App) handleHand(ctx context.Context, hand detector.HandLandmarks, debounce *gesture.Debouncer) {
	res := gesture.ClassifyResult(hand)
	if !res.Recognized {
		a.unrecognized.Add(1)
	}

	word := a.words.Word(res.Label)
	if word == "" || !debounce.ShouldEmit(word) {
		return
	}

	a.emit(ctx, res, word)
}

func (a *App) emit(ctx context.Context, res gesture.Result, word string) {
	target := a.TargetLanguage()
	rec := Recognition{
		Label:       res.Label,
		Word:        word,
		Translation: word,
		Language:    target,
		Recognized:  res.Recognized,
		Time:        time.Now(),
	}

	if a.translator != nil && !strings.EqualFold(target, a.config.SourceLanguage) {
		result := a.translator.Resolve(ctx, word, a.config.SourceLanguage, target)
		if text := strings.TrimSpace(result.Text); text != "" {
			rec.Translation = text
		}
		rec.Backend = result.Backend
	}

	if ctx.Err() != nil {
		return
	}

	if a.announcer != nil && !a.Muted() {
		a.announcer.Announce(rec.Translation, target)
	}

	a.setLast(rec.Word, rec.Translation)
	log.Printf("Gesture %s: %s -> %s (%s)", rec.Label, rec.Word, rec.Translation, target)

	a.record(rec)
	a.notify(rec)
}

func (a *App) record(rec Recognition) {
	if a.config.Store == nil {
		return
	}
	err := a.config.Store.Recognitions().Create(&store.Recognition{
		Label:       string(rec.Label),
		Word:        rec.Word,
		Translation: rec.Translation,
		Language:    rec.Language,
		Backend:     rec.Backend,
		CreatedAt:   rec.Time,
	})
	if err != nil {
		log.Printf("Failed to record recognition: %v", err)
	}
}

// publish encodes frame as JPEG into the frame buffer.
func (a *App) publish(frame *gocv.Mat) {
	if frame.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		log.Printf("Error encoding frame: %v", err)
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	a.frames.Set(data)
}
