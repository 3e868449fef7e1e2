// Package gesture classifies single-frame hand landmarks into the five
// gestures the scene controller understands.
package gesture

// Kind is a discrete gesture label.
type Kind string

const (
	// KindNone means no hand was detected.
	KindNone Kind = "NONE"
	// KindFist is a detected hand that matches no other gesture.
	KindFist Kind = "FIST"
	// KindOpen is an open hand; it scatters the gallery.
	KindOpen Kind = "OPEN"
	// KindPinch is thumb tip touching index tip; it focuses a photo.
	KindPinch Kind = "PINCH"
	// KindPoint is a raised index finger; it steers the scene rotation.
	KindPoint Kind = "POINT"
)

// Point is a normalized image-space position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center is the anchor reported when no hand is present.
var Center = Point{X: 0.5, Y: 0.5}

// Sample is one classified detection tick.
type Sample struct {
	Kind   Kind  `json:"gesture"`
	Anchor Point `json:"anchor"`
}

// None returns the sample used for ticks without a hand.
func None() Sample {
	return Sample{Kind: KindNone, Anchor: Center}
}
