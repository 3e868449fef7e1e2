package scene

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/tinsel/internal/gesture"
)

// Animator tuning. Blend factors and spins apply once per render tick.
const (
	PositionSmoothing = 0.15
	ScaleSmoothing    = 0.1

	RestingScale  = 0.8
	FocusedScale  = 6.0
	InitialScale  = 1.0
	FocusDistance = 8.0 // in front of the camera, world units

	RestingSpin   = 0.005 // radians per tick about local Y
	ScatteredSpin = 0.01

	// Scatter pushes the base position outward per axis and adds a
	// circular drift of ScatterDrift units.
	ScatterX     = 8.0
	ScatterY     = 6.0
	ScatterZ     = 4.0
	ScatterDrift = 3.0
)

var (
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Pose is the mode an object is being driven toward.
type Pose string

const (
	PoseResting   Pose = "resting"
	PoseScattered Pose = "scattered"
	PoseFocused   Pose = "focused"
)

// Transform is an object's animated state in the rotating subtree's space.
type Transform struct {
	Position    mgl64.Vec3
	Scale       float64
	Orientation mgl64.Quat
	Pose        Pose
}

// Animator owns the animated transform of every object, keyed by ID.
type Animator struct {
	states map[string]*Transform
}

// NewAnimator creates an empty animator.
func NewAnimator() *Animator {
	return &Animator{states: make(map[string]*Transform)}
}

// state returns the transform for o, creating it at o's base pose the
// first time o is seen.
func (a *Animator) state(o Object) *Transform {
	if st, ok := a.states[o.ID]; ok {
		return st
	}
	st := &Transform{
		Position:    o.BasePosition,
		Scale:       InitialScale,
		Orientation: eulerQuat(o.BaseRotation),
		Pose:        PoseResting,
	}
	a.states[o.ID] = st
	return st
}

// Transform returns the current transform for id.
func (a *Animator) Transform(id string) (Transform, bool) {
	st, ok := a.states[id]
	if !ok {
		return Transform{}, false
	}
	return *st, true
}

// Position returns the current local position of o, initialising its
// state if needed.
func (a *Animator) Position(o Object) mgl64.Vec3 {
	return a.state(o).Position
}

// AnimatorInput is the per-tick input the animator needs beyond the objects.
type AnimatorInput struct {
	Gesture   gesture.Kind
	FocusedID string
	Elapsed   time.Duration
	// Parent is the rotating subtree's local-to-world matrix.
	Parent mgl64.Mat4
	Camera Camera
}

// Update advances every object in objs one tick.
func (a *Animator) Update(objs []Object, in AnimatorInput) {
	parentInv := in.Parent.Inv()
	parentRot := mgl64.Mat4ToQuat(in.Parent)

	var focusPoint, camPos mgl64.Vec3
	if in.FocusedID != "" && in.Camera != nil {
		camWorld := in.Camera.WorldTransform()
		focusPoint = transformPoint(parentInv, transformPoint(camWorld, mgl64.Vec3{0, 0, -FocusDistance}))
		camPos = camWorld.Col(3).Vec3()
	}

	t := in.Elapsed.Seconds()

	for _, o := range objs {
		st := a.state(o)

		var target mgl64.Vec3
		scale := RestingScale

		switch {
		case o.ID == in.FocusedID && in.Camera != nil:
			st.Pose = PoseFocused
			target = focusPoint
			scale = FocusedScale
			world := transformPoint(in.Parent, st.Position)
			st.Orientation = parentRot.Inverse().Mul(lookAt(world, camPos))

		case in.Gesture == gesture.KindOpen:
			st.Pose = PoseScattered
			target = ScatterTarget(o, t)
			st.Orientation = spin(st.Orientation, ScatteredSpin)

		default:
			st.Pose = PoseResting
			target = o.BasePosition
			st.Orientation = spin(st.Orientation, RestingSpin)
		}

		st.Position = lerpVec(st.Position, target, PositionSmoothing)
		st.Scale = lerp(st.Scale, scale, ScaleSmoothing)
	}
}

// ScatterTarget is where o drifts while the hand is open at time t
// seconds. The phase comes from the object's ID so photos drift out of step.
func ScatterTarget(o Object, t float64) mgl64.Vec3 {
	phase := float64(len(o.ID))
	b := o.BasePosition
	return mgl64.Vec3{
		b.X()*ScatterX + math.Sin(t+phase)*ScatterDrift,
		b.Y()*ScatterY + math.Cos(t+phase)*ScatterDrift,
		b.Z() * ScatterZ,
	}
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// spin rotates q about its own Y axis.
func spin(q mgl64.Quat, angle float64) mgl64.Quat {
	return q.Mul(mgl64.QuatRotate(angle, axisY)).Normalize()
}

// eulerQuat converts an XYZ Euler rotation to a quaternion.
func eulerQuat(e mgl64.Vec3) mgl64.Quat {
	return mgl64.AnglesToQuat(e.X(), e.Y(), e.Z(), mgl64.XYZ)
}

// lookAt returns the world orientation that turns an object at from so its
// +Z face points at to, keeping +Y as close to world up as possible.
func lookAt(from, to mgl64.Vec3) mgl64.Quat {
	z := to.Sub(from)
	if z.Len() < 1e-9 {
		z = axisZ
	}
	z = z.Normalize()

	x := axisY.Cross(z)
	if x.Len() < 1e-9 {
		// Looking straight up or down; nudge off the pole.
		z = mgl64.Vec3{z.X() + 1e-4, z.Y(), z.Z()}.Normalize()
		x = axisY.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4()).Normalize()
}
