package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/tinsel/internal/gesture"
)

// Rotation tuning. All factors apply once per render tick.
const (
	// YawRange is the full yaw swing while pointing: anchor.x from 0 to 1
	// sweeps the target from +0.6π to -0.6π.
	YawRange = 1.2 * math.Pi
	// PitchRange is the full pitch swing: anchor.y from 0 to 1 sweeps the
	// target from -π/4 to +π/4.
	PitchRange = math.Pi / 2
	// PitchDecay and YawDecay pull the target back to centre when the
	// hand is not pointing or holding a fist. Pitch recentres faster.
	PitchDecay = 0.92
	YawDecay   = 0.98
	// RotationSmoothing is the per-tick blend of displayed toward target.
	RotationSmoothing = 0.08
)

// Euler is a pitch (X) and yaw (Y) pair in radians.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rotation is the whole-scene orientation controller.
type Rotation struct {
	Target    Euler
	Displayed Euler
}

// Update advances one tick for sample s and returns the displayed rotation.
func (r *Rotation) Update(s gesture.Sample) Euler {
	switch s.Kind {
	case gesture.KindPoint:
		r.Target.Y = -(s.Anchor.X - 0.5) * YawRange
		r.Target.X = (s.Anchor.Y - 0.5) * PitchRange
	case gesture.KindFist:
		// Hold.
	default:
		r.Target.X *= PitchDecay
		r.Target.Y *= YawDecay
	}

	r.Displayed.X = lerp(r.Displayed.X, r.Target.X, RotationSmoothing)
	r.Displayed.Y = lerp(r.Displayed.Y, r.Target.Y, RotationSmoothing)

	return r.Displayed
}

// Matrix returns the subtree's local-to-world matrix for the displayed
// rotation (XYZ order, no translation).
func (r *Rotation) Matrix() mgl64.Mat4 {
	return mgl64.HomogRotate3DX(r.Displayed.X).Mul4(mgl64.HomogRotate3DY(r.Displayed.Y))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
