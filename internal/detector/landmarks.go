// Package detector provides hand detection interfaces and landmark types.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a normalized image-space landmark. X and Y are in [0,1] with
// the origin at the top-left of the mirrored camera image; Z is the
// detector's relative depth and may be zero.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand: exactly 21 landmarks.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints builds a HandLandmarks from a detector result. It reports false
// when fewer than NumLandmarks points are present; a partial hand is never
// padded out.
func FromPoints(points []Point3D, handedness string, score float64) (HandLandmarks, bool) {
	if len(points) < NumLandmarks {
		return HandLandmarks{}, false
	}

	h := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(h.Points[:], points[:NumLandmarks])
	return h, true
}

// Distance2D returns the Euclidean distance between two landmarks in the
// image plane, ignoring depth.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Extended reports whether a finger tip sits above its base joint. Image Y
// grows downward, so "above" means a smaller Y.
func (h *HandLandmarks) Extended(tip, base int) bool {
	return h.Points[tip].Y < h.Points[base].Y
}

// Folded reports whether a finger tip sits below its base joint.
func (h *HandLandmarks) Folded(tip, base int) bool {
	return h.Points[tip].Y > h.Points[base].Y
}
