package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/tinsel/internal/gesture"
)

// Candidate is an object's projected position on screen.
type Candidate struct {
	ID     string
	Screen mgl64.Vec3 // normalized device coordinates
}

// distance is the candidate's distance from the screen centre.
func (c Candidate) distance() float64 {
	return math.Hypot(c.Screen.X(), c.Screen.Y())
}

// Focus tracks which object, if any, the viewer is pinching at.
type Focus struct {
	focusedID string
}

// Update runs one tick. Outside PINCH the focus is cleared. When a pinch
// starts with nothing focused, candidates is called once and the object
// nearest the screen centre is chosen; ties go to the earliest candidate.
// While the pinch is held the choice is kept without calling candidates.
func (f *Focus) Update(kind gesture.Kind, candidates func() []Candidate) string {
	if kind != gesture.KindPinch {
		f.focusedID = ""
		return f.focusedID
	}

	if f.focusedID != "" {
		return f.focusedID
	}

	best := math.Inf(1)
	for _, c := range candidates() {
		if d := c.distance(); d < best {
			best = d
			f.focusedID = c.ID
		}
	}
	return f.focusedID
}
