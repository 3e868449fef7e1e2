package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// fill sets a finger chain from base joint to tip.
func (h *HandLandmarks) fill(first int, pts ...Point3D) {
	for i, p := range pts {
		h.Points[first+i] = p
	}
}

// FistLandmarks returns a right hand with every finger curled and the thumb
// tucked against the middle phalanges, well clear of the index tip.
func FistLandmarks() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}
	h.fill(ThumbCMC,
		Point3D{X: 0.55, Y: 0.76},
		Point3D{X: 0.58, Y: 0.72},
		Point3D{X: 0.60, Y: 0.70},
		Point3D{X: 0.60, Y: 0.72},
	)
	h.fill(IndexMCP,
		Point3D{X: 0.55, Y: 0.62, Z: -0.02},
		Point3D{X: 0.56, Y: 0.58, Z: -0.05},
		Point3D{X: 0.55, Y: 0.63, Z: -0.04},
		Point3D{X: 0.54, Y: 0.67, Z: -0.02},
	)
	h.fill(MiddleMCP,
		Point3D{X: 0.50, Y: 0.61, Z: -0.02},
		Point3D{X: 0.50, Y: 0.57, Z: -0.05},
		Point3D{X: 0.50, Y: 0.62, Z: -0.04},
		Point3D{X: 0.50, Y: 0.66, Z: -0.02},
	)
	h.fill(RingMCP,
		Point3D{X: 0.45, Y: 0.62, Z: -0.02},
		Point3D{X: 0.45, Y: 0.59, Z: -0.05},
		Point3D{X: 0.45, Y: 0.64, Z: -0.04},
		Point3D{X: 0.46, Y: 0.67, Z: -0.02},
	)
	h.fill(PinkyMCP,
		Point3D{X: 0.41, Y: 0.65, Z: -0.02},
		Point3D{X: 0.41, Y: 0.62, Z: -0.05},
		Point3D{X: 0.41, Y: 0.66, Z: -0.04},
		Point3D{X: 0.42, Y: 0.70, Z: -0.02},
	)
	return h
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}
	h.fill(ThumbCMC,
		Point3D{X: 0.55, Y: 0.75, Z: 0.02},
		Point3D{X: 0.62, Y: 0.70, Z: 0.03},
		Point3D{X: 0.68, Y: 0.65, Z: 0.03},
		Point3D{X: 0.73, Y: 0.60, Z: 0.03},
	)
	h.fill(IndexMCP,
		Point3D{X: 0.55, Y: 0.68},
		Point3D{X: 0.57, Y: 0.55},
		Point3D{X: 0.58, Y: 0.45},
		Point3D{X: 0.58, Y: 0.35},
	)
	h.fill(MiddleMCP,
		Point3D{X: 0.50, Y: 0.66},
		Point3D{X: 0.50, Y: 0.52},
		Point3D{X: 0.50, Y: 0.40},
		Point3D{X: 0.50, Y: 0.28},
	)
	h.fill(RingMCP,
		Point3D{X: 0.45, Y: 0.68},
		Point3D{X: 0.43, Y: 0.55},
		Point3D{X: 0.42, Y: 0.45},
		Point3D{X: 0.42, Y: 0.35},
	)
	h.fill(PinkyMCP,
		Point3D{X: 0.40, Y: 0.70},
		Point3D{X: 0.37, Y: 0.60},
		Point3D{X: 0.35, Y: 0.50},
		Point3D{X: 0.34, Y: 0.42},
	)
	return h
}

// PointLandmarks returns a fist with only the index finger raised.
func PointLandmarks() HandLandmarks {
	h := FistLandmarks()
	h.fill(ThumbIP,
		Point3D{X: 0.56, Y: 0.68},
		Point3D{X: 0.52, Y: 0.66},
	)
	h.fill(IndexMCP,
		Point3D{X: 0.55, Y: 0.62},
		Point3D{X: 0.56, Y: 0.50},
		Point3D{X: 0.565, Y: 0.42},
		Point3D{X: 0.57, Y: 0.34},
	)
	return h
}

// PinchLandmarks returns an open palm whose thumb tip touches the index tip.
// The middle finger stays extended, so the hand would read as OPEN if the
// pinch were not checked first.
func PinchLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	h.fill(ThumbIP,
		Point3D{X: 0.63, Y: 0.48, Z: 0.02},
		Point3D{X: 0.59, Y: 0.37, Z: 0.01},
	)
	return h
}
