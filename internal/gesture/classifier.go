// Package gesture classifies static hand poses and maps them to words.
package gesture

import "github.com/ayusman/mudra/internal/detector"

// Label is one of the closed set of recognized static hand poses.
type Label string

const (
	Fist       Label = "fist"
	Open       Label = "open"
	ThumbsUp   Label = "thumbs_up"
	ThumbsDown Label = "thumbs_down"
	Victory    Label = "victory"
	ILoveYou   Label = "iloveyou"
)

// ThumbDeadZone is the margin, in normalized units, the thumb tip must hang
// below the thumb IP joint before the thumb counts as pointing down.
const ThumbDeadZone = 0.02

// Labels returns every label in a stable order.
func Labels() []Label {
	return []Label{Fist, Open, ThumbsUp, ThumbsDown, Victory, ILoveYou}
}

// Valid reports whether l belongs to the closed label set.
func (l Label) Valid() bool {
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// Finger positions in a TipsUp vector.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// Result is a classification with the finger state it was derived from.
// Recognized is false when no specific rule matched and the label fell back to Open.
type Result struct {
	Label      Label
	TipsUp     [5]bool
	ThumbDown  bool
	Recognized bool
}

// Classify maps a landmark set to a gesture label.
func Classify(hand detector.HandLandmarks) Label {
	return ClassifyResult(hand).Label
}

// ClassifyResult classifies hand and reports the intermediate finger state.
func ClassifyResult(hand detector.HandLandmarks) Result {
	tipsUp, thumbDown := FingerState(hand)
	label, recognized := classifyPattern(tipsUp, thumbDown)
	return Result{
		Label:      label,
		TipsUp:     tipsUp,
		ThumbDown:  thumbDown,
		Recognized: recognized,
	}
}

// FingerState reports which fingers are extended and whether the thumb points down.
// A finger is up when its tip is above (smaller y than) the joint two indices
// below it; for the thumb that joint is the MCP.
func FingerState(hand detector.HandLandmarks) (tipsUp [5]bool, thumbDown bool) {
	for i, tip := range detector.FingerTips {
		tipsUp[i] = hand.Points[tip].Y < hand.Points[tip-2].Y
	}
	thumbDown = hand.Points[detector.ThumbTip].Y > hand.Points[detector.ThumbIP].Y+ThumbDeadZone
	return tipsUp, thumbDown
}

// classifyPattern applies the rules in order; the first match wins.
func classifyPattern(up [5]bool, thumbDown bool) (Label, bool) {
	fingersDown := !up[Index] && !up[Middle] && !up[Ring] && !up[Pinky]

	switch {
	case !up[Thumb] && fingersDown:
		return Fist, true
	case up[Thumb] && up[Index] && up[Middle] && up[Ring] && up[Pinky]:
		return Open, true
	case up[Thumb] && fingersDown:
		return ThumbsUp, true
	// Rules 1 and 3 already cover every fingersDown vector, so this rule
	// never fires; it is kept so the rule table stays complete.
	case thumbDown && fingersDown:
		return ThumbsDown, true
	case !up[Thumb] && up[Index] && up[Middle] && !up[Ring] && !up[Pinky]:
		return Victory, true
	case up[Thumb] && up[Index] && !up[Middle] && !up[Ring] && up[Pinky]:
		return ILoveYou, true
	}
	return Open, false
}
