package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/tinsel/internal/gesture"
)

// ObjectState is one object's transform as sent to the renderer.
type ObjectState struct {
	ID       string     `json:"id"`
	URL      string     `json:"url"`
	Position mgl64.Vec3 `json:"position"`
	Scale    float64    `json:"scale"`
	// Quaternion is x, y, z, w.
	Quaternion [4]float64 `json:"quaternion"`
	Pose       Pose       `json:"pose"`
}

// Frame is everything the renderer needs for one displayed frame.
type Frame struct {
	Seq       uint64        `json:"seq"`
	Gesture   gesture.Kind  `json:"gesture"`
	Anchor    gesture.Point `json:"anchor"`
	Rotation  Euler         `json:"rotation"`
	FocusedID string        `json:"focused,omitempty"`
	Objects   []ObjectState `json:"objects"`
}

// Controller runs the rotation, focus and animation steps in order, once
// per render tick. It is not safe for concurrent use; the render loop owns it.
type Controller struct {
	collection *Collection
	rotation   Rotation
	focus      Focus
	animator   *Animator
	seq        uint64
}

// NewController creates a controller animating the objects in c.
func NewController(c *Collection) *Controller {
	return &Controller{
		collection: c,
		animator:   NewAnimator(),
	}
}

// Step advances one tick. elapsed is the time since the session started
// and only drives the scatter drift; every blend is per tick.
func (c *Controller) Step(s gesture.Sample, elapsed time.Duration, cam Camera) Frame {
	c.seq++

	c.rotation.Update(s)
	parent := c.rotation.Matrix()

	objs := c.collection.Snapshot()

	focused := c.focus.Update(s.Kind, func() []Candidate {
		if cam == nil {
			return nil
		}
		out := make([]Candidate, 0, len(objs))
		for _, o := range objs {
			world := transformPoint(parent, c.animator.Position(o))
			out = append(out, Candidate{ID: o.ID, Screen: cam.Project(world)})
		}
		return out
	})

	c.animator.Update(objs, AnimatorInput{
		Gesture:   s.Kind,
		FocusedID: focused,
		Elapsed:   elapsed,
		Parent:    parent,
		Camera:    cam,
	})

	frame := Frame{
		Seq:       c.seq,
		Gesture:   s.Kind,
		Anchor:    s.Anchor,
		Rotation:  c.rotation.Displayed,
		FocusedID: focused,
		Objects:   make([]ObjectState, 0, len(objs)),
	}
	for _, o := range objs {
		st, _ := c.animator.Transform(o.ID)
		q := st.Orientation
		frame.Objects = append(frame.Objects, ObjectState{
			ID:         o.ID,
			URL:        o.URL,
			Position:   st.Position,
			Scale:      st.Scale,
			Quaternion: [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
			Pose:       st.Pose,
		})
	}
	return frame
}
