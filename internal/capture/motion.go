package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	BlurKernel    = 21
	DiffThreshold = 25
	// DefaultMotionThreshold is the share of changed pixels, in percent,
	// that counts as motion.
	DefaultMotionThreshold = 1.0
)

// Motion is the result of comparing a frame with its predecessor.
type Motion struct {
	Moved bool
	// Changed is the percentage of pixels that differ.
	Changed float64
}

// MotionDetector compares consecutive blurred grayscale frames.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion once more than
// threshold percent of the pixels change. A non-positive threshold uses
// DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect compares frame with the previous one. The first frame only primes
// the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)

	if !m.primed || blurred.Rows() != m.prev.Rows() || blurred.Cols() != m.prev.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return Motion{Moved: changed > m.threshold, Changed: changed}
}

// Threshold returns the motion threshold in percent.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.Reset()
}
