// Package scene holds the per-frame interaction controller: the scene
// rotation, the focus selector and the photo animator.
package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Object is one free-floating photo plane. Its fields never change after
// it is added; the animated transform lives in the Animator.
type Object struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	BasePosition mgl64.Vec3 `json:"base_position"`
	// BaseRotation is an XYZ Euler rotation in radians.
	BaseRotation mgl64.Vec3 `json:"base_rotation"`
}

// Collection is an ordered, append-only set of objects shared between the
// render loop and whatever adds photos. Iteration order is insertion order.
type Collection struct {
	mu      sync.RWMutex
	objects []Object
	index   map[string]int
}

// NewCollection creates a collection holding objs in order.
func NewCollection(objs ...Object) *Collection {
	c := &Collection{index: make(map[string]int)}
	for _, o := range objs {
		c.Add(o)
	}
	return c
}

// Add appends o. It reports false if an object with the same ID is
// already present or the ID is empty.
func (c *Collection) Add(o Object) bool {
	if o.ID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[o.ID]; exists {
		return false
	}
	c.index[o.ID] = len(c.objects)
	c.objects = append(c.objects, o)
	return true
}

// Get returns the object with the given ID.
func (c *Collection) Get(id string) (Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return Object{}, false
	}
	return c.objects[i], true
}

// Len returns the number of objects.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}

// Snapshot returns the objects in insertion order. The returned slice is
// safe to read while other goroutines keep adding.
func (c *Collection) Snapshot() []Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Appends never touch existing elements, so a capped slice is stable.
	return c.objects[:len(c.objects):len(c.objects)]
}
