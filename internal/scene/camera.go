package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the renderer's view of the scene as the controller needs it.
type Camera interface {
	// Project maps a world position to normalized device coordinates,
	// with the screen centre at (0, 0).
	Project(world mgl64.Vec3) mgl64.Vec3
	// WorldTransform is the camera's local-to-world matrix.
	WorldTransform() mgl64.Mat4
}

// CameraPose describes a perspective camera as the renderer reports it.
type CameraPose struct {
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
	FOV      float64    `json:"fov"` // vertical, degrees
	Aspect   float64    `json:"aspect"`
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
}

// DefaultCameraPose matches the viewer's initial camera: 16 units back on
// +Z, 45 degree field of view, looking at the origin.
func DefaultCameraPose() CameraPose {
	return CameraPose{
		Position: mgl64.Vec3{0, 0, 16},
		Target:   mgl64.Vec3{0, 0, 0},
		FOV:      45,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      2000,
	}
}

// withDefaults fills zero or invalid fields from DefaultCameraPose.
func (p CameraPose) withDefaults() CameraPose {
	d := DefaultCameraPose()
	if p.FOV <= 0 || p.FOV >= 180 {
		p.FOV = d.FOV
	}
	if p.Aspect <= 0 || math.IsNaN(p.Aspect) || math.IsInf(p.Aspect, 0) {
		p.Aspect = d.Aspect
	}
	if p.Near <= 0 {
		p.Near = d.Near
	}
	if p.Far <= p.Near {
		p.Far = d.Far
	}
	if p.Position.Sub(p.Target).Len() < 1e-9 {
		p.Position = p.Target.Add(mgl64.Vec3{0, 0, d.Position.Z()})
	}
	return p
}

// PerspectiveCamera is an immutable perspective camera. Build a new one to
// move it.
type PerspectiveCamera struct {
	pose     CameraPose
	view     mgl64.Mat4
	viewProj mgl64.Mat4
	world    mgl64.Mat4
}

// NewPerspectiveCamera creates a camera from pose, filling unset fields
// from DefaultCameraPose.
func NewPerspectiveCamera(pose CameraPose) *PerspectiveCamera {
	pose = pose.withDefaults()

	up := mgl64.Vec3{0, 1, 0}
	dir := pose.Target.Sub(pose.Position).Normalize()
	if math.Abs(dir.Dot(up)) > 0.999999 {
		up = mgl64.Vec3{0, 0, -1}
	}

	view := mgl64.LookAtV(pose.Position, pose.Target, up)
	proj := mgl64.Perspective(mgl64.DegToRad(pose.FOV), pose.Aspect, pose.Near, pose.Far)

	return &PerspectiveCamera{
		pose:     pose,
		view:     view,
		viewProj: proj.Mul4(view),
		world:    view.Inv(),
	}
}

// Pose returns the pose the camera was built from.
func (c *PerspectiveCamera) Pose() CameraPose {
	return c.pose
}

// Position returns the camera position in world space.
func (c *PerspectiveCamera) Position() mgl64.Vec3 {
	return c.pose.Position
}

// Project implements Camera.
func (c *PerspectiveCamera) Project(world mgl64.Vec3) mgl64.Vec3 {
	clip := c.viewProj.Mul4x1(world.Vec4(1))
	w := clip.W()
	if w == 0 {
		return clip.Vec3()
	}
	return clip.Vec3().Mul(1 / w)
}

// WorldTransform implements Camera.
func (c *PerspectiveCamera) WorldTransform() mgl64.Mat4 {
	return c.world
}
