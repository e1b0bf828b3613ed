package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
	mu    sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// finger joint heights used to build preset hands.
const (
	mcpY      = 0.68
	extPIPY   = 0.55
	extDIPY   = 0.45
	extTipY   = 0.35
	curlPIPY  = 0.66
	curlDIPY  = 0.68
	curlTipY  = 0.71
	thumbBase = 0.75
)

// fingerBaseX is the horizontal position of each non-thumb finger for a
// right hand seen palm-forward.
var fingerBaseX = [4]float64{0.55, 0.50, 0.45, 0.40}

// PoseLandmarks builds a right hand with each finger either extended or curled,
// in thumb, index, middle, ring, pinky order.
func PoseLandmarks(thumb, index, middle, ring, pinky bool) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point{X: 0.5, Y: 0.85}

	h.Points[ThumbCMC] = Point{X: 0.56, Y: thumbBase}
	if thumb {
		h.Points[ThumbMCP] = Point{X: 0.60, Y: 0.65}
		h.Points[ThumbIP] = Point{X: 0.61, Y: 0.50}
		h.Points[ThumbTip] = Point{X: 0.61, Y: 0.35}
	} else {
		h.Points[ThumbMCP] = Point{X: 0.58, Y: 0.66}
		h.Points[ThumbIP] = Point{X: 0.55, Y: 0.68}
		h.Points[ThumbTip] = Point{X: 0.52, Y: 0.69}
	}

	extended := [4]bool{index, middle, ring, pinky}
	for i, up := range extended {
		mcp := IndexMCP + i*4
		x := fingerBaseX[i]
		h.Points[mcp] = Point{X: x, Y: mcpY, Z: -0.01}
		if up {
			h.Points[mcp+1] = Point{X: x, Y: extPIPY}
			h.Points[mcp+2] = Point{X: x, Y: extDIPY}
			h.Points[mcp+3] = Point{X: x, Y: extTipY}
		} else {
			h.Points[mcp+1] = Point{X: x, Y: curlPIPY, Z: -0.05}
			h.Points[mcp+2] = Point{X: x - 0.02, Y: curlDIPY, Z: -0.04}
			h.Points[mcp+3] = Point{X: x - 0.03, Y: curlTipY, Z: -0.02}
		}
	}

	return h
}

// FistLandmarks returns a closed fist.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks(false, false, false, false, false)
}

// OpenPalmLandmarks returns an open palm with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, true, true, true)
}

// ThumbsUpLandmarks returns a thumb extended upward with the other fingers curled.
func ThumbsUpLandmarks() HandLandmarks {
	return PoseLandmarks(true, false, false, false, false)
}

// VictoryLandmarks returns index and middle extended.
func VictoryLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, true, false, false)
}

// ILoveYouLandmarks returns thumb, index and pinky extended.
func ILoveYouLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, false, false, true)
}

// ThumbsDownLandmarks returns a hand whose thumb tip hangs below the thumb IP
// joint while staying above the thumb MCP, with the other fingers curled.
func ThumbsDownLandmarks() HandLandmarks {
	h := PoseLandmarks(false, false, false, false, false)
	h.Points[ThumbMCP] = Point{X: 0.60, Y: 0.80}
	h.Points[ThumbIP] = Point{X: 0.62, Y: 0.62}
	h.Points[ThumbTip] = Point{X: 0.62, Y: 0.72}
	return h
}
