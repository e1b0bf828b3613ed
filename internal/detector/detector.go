package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector finds hand landmarks in a video frame.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. Recognition only
	// consumes the first hand, so the default is 1.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the location of the landmark service script.
	ScriptPath string

	// Python overrides the interpreter used to run the service.
	Python string

	// RequestTimeout bounds one frame round trip. A service that does not
	// answer in time is killed and restarted on the next frame.
	RequestTimeout time.Duration
}

// DefaultRequestTimeout is the RequestTimeout used when none is set.
const DefaultRequestTimeout = 2 * time.Second

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		RequestTimeout:  DefaultRequestTimeout,
	}
}

// First returns the first detected hand, if any.
func First(hands []HandLandmarks) (HandLandmarks, bool) {
	if len(hands) == 0 {
		return HandLandmarks{}, false
	}
	return hands[0], true
}

// NoHands is a Detector that never finds a hand. It stands in for the
// landmark service when that cannot be started.
type NoHands struct{}

// Detect always reports no hands.
func (NoHands) Detect(frame *gocv.Mat) ([]HandLandmarks, error) { return nil, nil }

// Close does nothing.
func (NoHands) Close() error { return nil }
