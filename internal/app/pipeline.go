package app

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gocv.io/x/gocv"

	"github.com/ayusman/tinsel/internal/gesture"
	"github.com/ayusman/tinsel/internal/scene"
	"github.com/ayusman/tinsel/internal/telemetry"
)

// runRender steps the controller once per tick until stop is closed.
//
// Each tick reads the mailbox once, so the controller sees whichever sample
// was published last, and gestures published between ticks are dropped.
func (a *App) runRender(stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.tick(time.Since(a.started))
		}
	}
}

// tick is one render step. Only the render loop calls it.
func (a *App) tick(elapsed time.Duration) scene.Frame {
	s := a.mailbox.Load()
	frame := a.controller.Step(s, elapsed, a.sceneCam.Load())

	a.mu.RLock()
	frameFns := a.onFrame
	gestureFns := a.onGesture
	a.mu.RUnlock()

	if s.Kind != a.lastKind {
		a.lastKind = s.Kind
		for _, fn := range gestureFns {
			fn(s.Kind)
		}
	}
	for _, fn := range frameFns {
		fn(frame)
	}
	return frame
}

// runDetect reads camera frames at the governor's rate, classifies them
// and publishes the result until stop is closed.
func (a *App) runDetect(stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.governor.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if changed := a.detectOnce(context.Background()); changed {
				a.camera.SetFPS(a.governor.FPS())
				ticker.Reset(a.governor.Interval())
			}
		}
	}
}

// detectOnce processes a single camera frame and reports whether the
// detection rate changed.
func (a *App) detectOnce(ctx context.Context) (rateChanged bool) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.detectFailed("read frame", err)
		return false
	}
	defer frame.Close()

	if a.viewers.Load() > 0 {
		a.storePreview(frame)
	}

	m := a.motion.Detect(frame)
	_, rateChanged = a.governor.Observe(m.Moved, time.Now())
	if rateChanged {
		if a.governor.Active() {
			log.Println("Motion detected, switched to active rate")
		} else {
			log.Println("No motion, switched to idle rate")
		}
	}

	if !a.IsEnabled() {
		a.mailbox.Publish(gesture.None())
		return rateChanged
	}

	d := a.Detector()
	if d == nil {
		a.mailbox.Publish(gesture.None())
		return rateChanged
	}

	_, span := telemetry.Tracer().Start(ctx, "detect")
	hands, err := d.Detect(frame)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		a.detectFailed("detect hands", err)
		return rateChanged
	}

	s := gesture.ClassifyFirst(hands)
	span.SetAttributes(
		attribute.Int("hands", len(hands)),
		attribute.String("gesture", string(s.Kind)),
		attribute.Float64("motion.changed", m.Changed),
	)
	span.End()

	if a.detectErr {
		a.detectErr = false
		log.Println("Detection recovered")
	}
	a.mailbox.Publish(s)
	return rateChanged
}

// detectFailed publishes NONE and logs the first failure of a run.
func (a *App) detectFailed(op string, err error) {
	a.mailbox.Publish(gesture.None())
	if !a.detectErr {
		a.detectErr = true
		log.Printf("Detection unavailable (%s): %v", op, err)
	}
}

func (a *App) storePreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	seq := uint64(1)
	if prev := a.preview.Load(); prev != nil {
		seq = prev.Seq + 1
	}
	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	a.preview.Store(&Preview{Seq: seq, JPEG: jpeg})
}
