package gesture

import (
	"sync"
	"testing"
)

func TestMailbox_StartsAtNone(t *testing.T) {
	m := NewMailbox()
	if got := m.Load(); got != None() {
		t.Errorf("Load() = %+v, want NONE sample", got)
	}
}

func TestMailbox_LastWriteWins(t *testing.T) {
	m := NewMailbox()

	m.Publish(Sample{Kind: KindFist, Anchor: Point{X: 0.1, Y: 0.2}})
	m.Publish(Sample{Kind: KindPoint, Anchor: Point{X: 0.9, Y: 0.4}})

	got := m.Load()
	if got.Kind != KindPoint || got.Anchor.X != 0.9 {
		t.Errorf("Load() = %+v, want the POINT sample", got)
	}

	// Reading does not consume.
	if again := m.Load(); again != got {
		t.Errorf("second Load() = %+v, want %+v", again, got)
	}
}

func TestMailbox_ConcurrentPublishAndLoad(t *testing.T) {
	m := NewMailbox()
	kinds := []Kind{KindPinch, KindPoint, KindOpen, KindFist, KindNone}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Publish(Sample{Kind: kinds[i%len(kinds)], Anchor: Point{X: float64(i)}})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s := m.Load()
			if s.Kind == "" {
				t.Error("Load() returned an empty sample")
				return
			}
		}
	}()

	wg.Wait()

	if got := m.Load(); got.Anchor.X != 999 {
		t.Errorf("final anchor X = %v, want 999", got.Anchor.X)
	}
}
