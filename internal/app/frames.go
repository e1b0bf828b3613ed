package app

import "sync"

// FrameBuffer holds the most recent JPEG-encoded frame. The recognition loop
// writes it; stream handlers read it.
type FrameBuffer struct {
	mu   sync.RWMutex
	data []byte
	seq  uint64
}

// Set replaces the latest frame. Empty data is ignored so the buffer always
// holds either nothing or a complete image.
func (b *FrameBuffer) Set(data []byte) {
	if len(data) == 0 {
		return
	}
	b.mu.Lock()
	b.data = data
	b.seq++
	b.mu.Unlock()
}

// Latest returns the latest frame and its sequence number. The sequence is
// zero until the first frame is stored. Callers must not modify the bytes.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data, b.seq
}
