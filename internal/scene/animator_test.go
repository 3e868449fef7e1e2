package scene

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/tinsel/internal/gesture"
)

func restInput() AnimatorInput {
	return AnimatorInput{Gesture: gesture.KindNone, Parent: mgl64.Ident4()}
}

func openInput(elapsed time.Duration) AnimatorInput {
	return AnimatorInput{Gesture: gesture.KindOpen, Parent: mgl64.Ident4(), Elapsed: elapsed}
}

func vecNear(a, b mgl64.Vec3, eps float64) bool {
	return a.Sub(b).Len() <= eps
}

func isIdentity(q mgl64.Quat, eps float64) bool {
	return math.Abs(math.Abs(q.W)-1) <= eps && q.V.Len() <= eps
}

func TestAnimator_InitialState(t *testing.T) {
	a := NewAnimator()
	o := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}, BaseRotation: mgl64.Vec3{0, 0.5, 0}}

	if _, ok := a.Transform(o.ID); ok {
		t.Fatal("Transform() found state before the object was seen")
	}
	if got := a.Position(o); got != o.BasePosition {
		t.Errorf("Position() = %v, want base %v", got, o.BasePosition)
	}

	st, ok := a.Transform(o.ID)
	if !ok {
		t.Fatal("Transform() missing after Position()")
	}
	if st.Scale != InitialScale {
		t.Errorf("Scale = %f, want %f", st.Scale, InitialScale)
	}
	want := mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0})
	if !st.Orientation.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("Orientation = %v, want %v", st.Orientation, want)
	}
}

func TestAnimator_ScatterConverges(t *testing.T) {
	a := NewAnimator()
	o := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}}
	objs := []Object{o}

	// Hold time still so the scatter target is fixed.
	elapsed := 3 * time.Second
	target := ScatterTarget(o, elapsed.Seconds())

	prev := a.Position(o).Sub(target).Len()
	for i := 0; i < 120; i++ {
		a.Update(objs, openInput(elapsed))
		st, _ := a.Transform(o.ID)
		if st.Pose != PoseScattered {
			t.Fatalf("tick %d: pose = %s, want scattered", i, st.Pose)
		}
		d := st.Position.Sub(target).Len()
		if d >= prev {
			t.Fatalf("tick %d: distance to scatter target grew from %f to %f", i, prev, d)
		}
		prev = d
	}
	if prev > 1e-4 {
		t.Errorf("distance to scatter target = %f after 120 ticks", prev)
	}

	st, _ := a.Transform(o.ID)
	if math.Abs(st.Scale-RestingScale) > 1e-4 {
		t.Errorf("Scale = %f, want %f while scattered", st.Scale, RestingScale)
	}
}

func TestAnimator_ScatterDriftStaysAroundOffset(t *testing.T) {
	a := NewAnimator()
	o := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}}
	centre := mgl64.Vec3{16, 6, 8}

	for i := 0; i < 600; i++ {
		a.Update([]Object{o}, openInput(time.Duration(i)*time.Second/60))
	}

	st, _ := a.Transform(o.ID)
	if d := st.Position.Sub(centre).Len(); d > ScatterDrift+0.5 {
		t.Errorf("scattered position %v is %f from drift centre, want within %f", st.Position, d, ScatterDrift+0.5)
	}
	if d := st.Position.Sub(o.BasePosition).Len(); d < 10 {
		t.Errorf("scattered position %v still near base", st.Position)
	}
}

func TestAnimator_ScatterTarget(t *testing.T) {
	o := Object{ID: "abc", BasePosition: mgl64.Vec3{1, -1, 0.5}}
	got := ScatterTarget(o, 0.5)
	want := mgl64.Vec3{8 + math.Sin(3.5)*3, -6 + math.Cos(3.5)*3, 2}
	if !vecNear(got, want, tol) {
		t.Errorf("ScatterTarget() = %v, want %v", got, want)
	}
}

func TestAnimator_RedirectMidTransition(t *testing.T) {
	a := NewAnimator()
	o := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}}
	objs := []Object{o}

	for i := 0; i < 5; i++ {
		a.Update(objs, openInput(time.Second))
	}
	mid, _ := a.Transform(o.ID)

	a.Update(objs, restInput())
	next, _ := a.Transform(o.ID)

	want := mid.Position.Add(o.BasePosition.Sub(mid.Position).Mul(PositionSmoothing))
	if !vecNear(next.Position, want, tol) {
		t.Errorf("position after redirect = %v, want %v (no jump)", next.Position, want)
	}
	wantScale := mid.Scale + (RestingScale-mid.Scale)*ScaleSmoothing
	if math.Abs(next.Scale-wantScale) > tol {
		t.Errorf("scale after redirect = %f, want %f", next.Scale, wantScale)
	}
	if next.Pose != PoseResting {
		t.Errorf("pose = %s, want resting", next.Pose)
	}
}

func TestAnimator_RestingFixedPoint(t *testing.T) {
	a := NewAnimator()
	o := Object{ID: "2", BasePosition: mgl64.Vec3{-2, 3, 1}, BaseRotation: mgl64.Vec3{0, 0.5, 0}}
	objs := []Object{o}

	for i := 0; i < 500; i++ {
		a.Update(objs, restInput())
	}
	before, _ := a.Transform(o.ID)
	a.Update(objs, restInput())
	after, _ := a.Transform(o.ID)

	if !vecNear(after.Position, before.Position, 1e-12) {
		t.Errorf("resting position moved from %v to %v", before.Position, after.Position)
	}
	if after.Position != o.BasePosition {
		t.Errorf("resting position = %v, want base %v", after.Position, o.BasePosition)
	}
	if math.Abs(after.Scale-before.Scale) > 1e-12 || math.Abs(after.Scale-RestingScale) > 1e-12 {
		t.Errorf("resting scale = %f, want %f", after.Scale, RestingScale)
	}
}

func TestAnimator_SpinAboutLocalY(t *testing.T) {
	tests := []struct {
		name  string
		input AnimatorInput
		angle float64
	}{
		{name: "resting", input: restInput(), angle: RestingSpin},
		{name: "scattered", input: openInput(0), angle: ScatteredSpin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnimator()
			o := Object{ID: "3", BasePosition: mgl64.Vec3{1, 0, -3}, BaseRotation: mgl64.Vec3{0.3, -0.5, 0}}

			a.Update([]Object{o}, tt.input)
			q0, _ := a.Transform(o.ID)
			a.Update([]Object{o}, tt.input)
			q1, _ := a.Transform(o.ID)

			delta := q0.Orientation.Inverse().Mul(q1.Orientation)
			want := mgl64.QuatRotate(tt.angle, mgl64.Vec3{0, 1, 0})
			// q and -q are the same orientation.
			if math.Abs(delta.Dot(want)) < 1-1e-12 {
				t.Errorf("per-tick rotation = %v, want %v", delta, want)
			}
		})
	}
}

func TestAnimator_FocusedLocksToCamera(t *testing.T) {
	cam := NewPerspectiveCamera(DefaultCameraPose())
	parents := []struct {
		name   string
		parent mgl64.Mat4
	}{
		{name: "identity", parent: mgl64.Ident4()},
		{name: "rotated", parent: mgl64.HomogRotate3DX(0.3).Mul4(mgl64.HomogRotate3DY(-1.1))},
	}

	for _, p := range parents {
		t.Run(p.name, func(t *testing.T) {
			a := NewAnimator()
			focused := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}}
			other := Object{ID: "2", BasePosition: mgl64.Vec3{-2, 3, 1}}
			objs := []Object{focused, other}
			in := AnimatorInput{
				Gesture:   gesture.KindPinch,
				FocusedID: focused.ID,
				Parent:    p.parent,
				Camera:    cam,
			}

			for i := 0; i < 300; i++ {
				a.Update(objs, in)
			}

			st, _ := a.Transform(focused.ID)
			if st.Pose != PoseFocused {
				t.Fatalf("pose = %s, want focused", st.Pose)
			}
			world := transformPoint(p.parent, st.Position)
			if !vecNear(world, mgl64.Vec3{0, 0, 8}, 1e-6) {
				t.Errorf("focused world position = %v, want 8 units in front of the camera", world)
			}
			if math.Abs(st.Scale-FocusedScale) > 1e-6 {
				t.Errorf("focused scale = %f, want %f", st.Scale, FocusedScale)
			}
			worldRot := mgl64.Mat4ToQuat(p.parent).Mul(st.Orientation)
			if !isIdentity(worldRot, 1e-6) {
				t.Errorf("focused world orientation = %v, want facing the camera", worldRot)
			}

			// Idempotent once converged.
			a.Update(objs, in)
			again, _ := a.Transform(focused.ID)
			if !vecNear(again.Position, st.Position, 1e-9) || math.Abs(again.Scale-st.Scale) > 1e-9 {
				t.Errorf("converged focused transform moved: %+v -> %+v", st, again)
			}

			rest, _ := a.Transform(other.ID)
			if rest.Pose != PoseResting {
				t.Errorf("unfocused pose = %s, want resting", rest.Pose)
			}
		})
	}
}

func TestAnimator_FocusWithoutCameraRests(t *testing.T) {
	a := NewAnimator()
	o := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}}
	a.Update([]Object{o}, AnimatorInput{Gesture: gesture.KindPinch, FocusedID: o.ID, Parent: mgl64.Ident4()})

	st, _ := a.Transform(o.ID)
	if st.Pose != PoseResting {
		t.Errorf("pose = %s, want resting without a camera", st.Pose)
	}
}

func TestAnimator_PicksUpNewObjects(t *testing.T) {
	a := NewAnimator()
	first := Object{ID: "1", BasePosition: mgl64.Vec3{2, 1, 2}}
	for i := 0; i < 10; i++ {
		a.Update([]Object{first}, restInput())
	}

	added := Object{ID: "new", BasePosition: mgl64.Vec3{0.5, -1, 2}}
	a.Update([]Object{first, added}, restInput())

	st, ok := a.Transform(added.ID)
	if !ok {
		t.Fatal("added object has no state")
	}
	if st.Position != added.BasePosition {
		t.Errorf("added position = %v, want base %v", st.Position, added.BasePosition)
	}
	wantScale := InitialScale + (RestingScale-InitialScale)*ScaleSmoothing
	if math.Abs(st.Scale-wantScale) > tol {
		t.Errorf("added scale = %f, want %f", st.Scale, wantScale)
	}
}

func TestLookAt_Pole(t *testing.T) {
	q := lookAt(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 5, 0})
	z := q.Rotate(mgl64.Vec3{0, 0, 1})
	if z.Y() < 0.999 {
		t.Errorf("+Z after lookAt straight up = %v", z)
	}
	if math.IsNaN(q.W) {
		t.Error("lookAt returned NaN at the pole")
	}
}
