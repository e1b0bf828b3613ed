package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/gorilla/websocket"
)

const (
	// feedBuffer is the number of messages queued per client before drops.
	feedBuffer = 16
	writeWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// recognitionMessage is the JSON pushed to feed clients.
type recognitionMessage struct {
	Label       string `json:"label"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Language    string `json:"language"`
	Backend     string `json:"backend,omitempty"`
	Recognized  bool   `json:"recognized"`
	Timestamp   int64  `json:"timestamp"`
}

// RecognitionFeed pushes emitted words to WebSocket clients.
type RecognitionFeed struct {
	clients map[*websocket.Conn]chan []byte
	closed  bool
	mu      sync.Mutex
}

// NewRecognitionFeed creates an empty feed.
func NewRecognitionFeed() *RecognitionFeed {
	return &RecognitionFeed{
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Publish queues rec for every client. It never blocks; slow clients miss
// messages.
func (f *RecognitionFeed) Publish(rec app.Recognition) {
	msg, err := json.Marshal(recognitionMessage{
		Label:       string(rec.Label),
		Word:        rec.Word,
		Translation: rec.Translation,
		Language:    rec.Language,
		Backend:     rec.Backend,
		Recognized:  rec.Recognized,
		Timestamp:   rec.Time.UnixMilli(),
	})
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (f *RecognitionFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every client and rejects new ones.
func (f *RecognitionFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for conn := range f.clients {
		conn.Close()
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (f *RecognitionFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan []byte, feedBuffer)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.clients[conn] = ch
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.mu.Lock()
	delete(f.clients, conn)
	close(ch)
	f.mu.Unlock()

	<-done
}
