package gesture

import "github.com/ayusman/tinsel/internal/detector"

// PinchThreshold is the thumb-to-index tip distance, in normalized image
// units, below which a hand counts as pinching.
const PinchThreshold = 0.05

// Classify maps one frame's landmarks to a Sample. A nil hand is NONE.
//
// Checks run in a fixed order and the first match wins:
// PINCH, POINT, OPEN, then FIST as the fallback for any detected hand.
// Nothing is smoothed here; each frame is judged on its own.
func Classify(hand *detector.HandLandmarks) Sample {
	if hand == nil {
		return None()
	}

	palm := anchorAt(hand, detector.MiddleMCP)

	if detector.Distance2D(hand.Points[detector.ThumbTip], hand.Points[detector.IndexTip]) < PinchThreshold {
		return Sample{Kind: KindPinch, Anchor: palm}
	}

	if hand.Extended(detector.IndexTip, detector.IndexMCP) &&
		hand.Folded(detector.MiddleTip, detector.MiddleMCP) &&
		hand.Folded(detector.RingTip, detector.RingMCP) {
		return Sample{Kind: KindPoint, Anchor: anchorAt(hand, detector.IndexTip)}
	}

	if hand.Extended(detector.MiddleTip, detector.MiddleMCP) {
		return Sample{Kind: KindOpen, Anchor: palm}
	}

	return Sample{Kind: KindFist, Anchor: palm}
}

// ClassifyFirst classifies the first hand of a detection result.
func ClassifyFirst(hands []detector.HandLandmarks) Sample {
	return Classify(detector.First(hands))
}

func anchorAt(hand *detector.HandLandmarks, idx int) Point {
	p := hand.Points[idx]
	return Point{X: p.X, Y: p.Y}
}
