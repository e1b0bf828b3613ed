package speech

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of pending announcements kept before new ones are dropped.
const DefaultQueueSize = 4

type announcement struct {
	text string
	lang string
}

// Announcer speaks text in the background so callers never wait on audio.
// Announcements are spoken one at a time in order; when the queue is full,
// new announcements are dropped. Failures are logged and otherwise ignored.
type Announcer struct {
	speaker Speaker
	queue   chan announcement
	muted   atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewAnnouncer starts an announcer over speaker. queueSize <= 0 uses DefaultQueueSize.
func NewAnnouncer(speaker Speaker, queueSize int) *Announcer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Announcer{
		speaker: speaker,
		queue:   make(chan announcement, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// SetMuted enables or disables speaking. Announcements already queued are
// skipped while muted.
func (a *Announcer) SetMuted(muted bool) {
	a.muted.Store(muted)
}

// Muted reports whether announcements are suppressed.
func (a *Announcer) Muted() bool {
	return a.muted.Load()
}

// Announce queues text to be spoken in lang and reports whether it was queued.
func (a *Announcer) Announce(text, lang string) bool {
	if text == "" || a.Muted() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}

	select {
	case a.queue <- announcement{text: text, lang: lang}:
		return true
	default:
		log.Printf("speech: queue full, dropping %q", text)
		return false
	}
}

// Close stops accepting announcements, interrupts the current one and waits
// for the worker to exit.
func (a *Announcer) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
		a.cancel()
	}
	a.mu.Unlock()

	<-a.done
}

func (a *Announcer) run() {
	defer close(a.done)

	for item := range a.queue {
		if a.Muted() || a.ctx.Err() != nil {
			continue
		}
		if err := a.speaker.Speak(a.ctx, item.text, item.lang); err != nil {
			log.Printf("speech: announce %q: %v", item.text, err)
		}
	}
}
