// Package app runs tinsel's two loops: detection, which turns camera frames
// or client landmarks into gesture samples, and rendering, which steps the
// scene controller at a fixed rate and hands each frame to subscribers.
package app

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/tinsel/internal/capture"
	"github.com/ayusman/tinsel/internal/detector"
	"github.com/ayusman/tinsel/internal/gesture"
	"github.com/ayusman/tinsel/internal/scene"
)

// DefaultRenderFPS is the controller tick rate.
const DefaultRenderFPS = 60

// ErrStopped is returned by Start after Stop has released the camera and
// detector.
var ErrStopped = errors.New("app stopped")

// Config holds the application's collaborators.
type Config struct {
	Collection *scene.Collection
	// Camera and Detector drive local detection. Leave Camera nil when
	// landmarks come from clients instead.
	Camera       capture.Camera
	Detector     detector.Detector
	MotionThresh float64
	RenderFPS    int
}

// Preview is the latest camera frame as JPEG.
type Preview struct {
	Seq  uint64
	JPEG []byte
}

// App wires detection to the scene controller.
type App struct {
	config     Config
	collection *scene.Collection
	camera     capture.Camera
	motion     *capture.MotionDetector
	governor   *capture.Governor
	mailbox    *gesture.Mailbox
	controller *scene.Controller
	sceneCam   atomic.Pointer[scene.PerspectiveCamera]
	preview    atomic.Pointer[Preview]
	viewers    atomic.Int32
	enabled    atomic.Bool

	mu        sync.RWMutex
	detector  detector.Detector
	onFrame   []func(scene.Frame)
	onGesture []func(gesture.Kind)
	stopCh    chan struct{}
	stopped   bool
	wg        sync.WaitGroup
	started   time.Time
	lastKind  gesture.Kind
	detectErr bool
}

// New creates an App. Detection starts enabled.
func New(config Config) *App {
	if config.Collection == nil {
		config.Collection = scene.NewCollection()
	}
	if config.RenderFPS <= 0 {
		config.RenderFPS = DefaultRenderFPS
	}

	a := &App{
		config:     config,
		collection: config.Collection,
		camera:     config.Camera,
		governor:   capture.NewGovernor(),
		mailbox:    gesture.NewMailbox(),
		controller: scene.NewController(config.Collection),
		detector:   config.Detector,
		lastKind:   gesture.KindNone,
	}
	if config.Camera != nil {
		a.motion = capture.NewMotionDetector(config.MotionThresh)
	}
	a.sceneCam.Store(scene.NewPerspectiveCamera(scene.DefaultCameraPose()))
	a.enabled.Store(true)
	return a
}

// SetEnabled turns gesture detection on or off. While off every source
// publishes NONE, so the scene settles back to rest.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	if !enabled {
		a.mailbox.Publish(gesture.None())
	}
	log.Printf("Gesture detection enabled: %v", enabled)
}

// IsEnabled reports whether gesture detection is on.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetDetector replaces the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Collection returns the scene's objects.
func (a *App) Collection() *scene.Collection {
	return a.collection
}

// Mailbox returns the gesture slot between detection and rendering.
func (a *App) Mailbox() *gesture.Mailbox {
	return a.mailbox
}

// PublishLandmarks classifies the first hand in hands and publishes the
// result. It is the entry point for landmarks detected by clients.
func (a *App) PublishLandmarks(hands []detector.HandLandmarks) gesture.Sample {
	s := gesture.None()
	if a.IsEnabled() {
		s = gesture.ClassifyFirst(hands)
	}
	a.mailbox.Publish(s)
	return s
}

// SetCamera updates the renderer's camera used for focus selection and
// the focused photo's placement.
func (a *App) SetCamera(pose scene.CameraPose) {
	a.sceneCam.Store(scene.NewPerspectiveCamera(pose))
}

// Camera returns the current renderer camera.
func (a *App) Camera() *scene.PerspectiveCamera {
	return a.sceneCam.Load()
}

// LatestPreview returns the most recent camera frame, or nil.
func (a *App) LatestPreview() *Preview {
	return a.preview.Load()
}

// WatchPreview registers a preview consumer. Frames are only JPEG encoded
// while at least one consumer is registered. Call release when done.
func (a *App) WatchPreview() (release func()) {
	a.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.viewers.Add(-1) })
	}
}

// OnFrame registers fn to receive every rendered frame. fn runs on the
// render loop and must not block.
func (a *App) OnFrame(fn func(scene.Frame)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFrame = append(a.onFrame, fn)
}

// OnGesture registers fn to be called when the rendered gesture changes.
func (a *App) OnGesture(fn func(gesture.Kind)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGesture = append(a.onGesture, fn)
}

// Start launches the render loop and, with a camera configured, the
// detection loop. A camera that fails to open is logged and the app runs
// without local detection.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrStopped
	}
	if a.stopCh != nil {
		return errors.New("app already started")
	}
	a.stopCh = make(chan struct{})
	a.started = time.Now()

	a.wg.Add(1)
	go a.runRender(a.stopCh)

	if a.camera != nil {
		if err := a.camera.Open(); err != nil {
			log.Printf("Camera unavailable, no local detection: %v", err)
			a.mailbox.Publish(gesture.None())
		} else {
			a.camera.SetFPS(a.governor.FPS())
			a.wg.Add(1)
			go a.runDetect(a.stopCh)
			log.Println("Detection loop started")
		}
	}

	log.Printf("Render loop started at %d fps", a.config.RenderFPS)
	return nil
}

// Stop ends both loops and releases the camera and detector. It is safe to
// call more than once.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.stopped = true
	a.mu.Unlock()

	a.wg.Wait()

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	log.Println("Stopped")
}
