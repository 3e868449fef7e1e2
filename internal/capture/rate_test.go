package capture

import (
	"testing"
	"time"
)

func TestGovernor(t *testing.T) {
	g := NewGovernor()
	start := time.Unix(1000, 0)

	if g.Active() || g.FPS() != IdleFPS {
		t.Fatalf("new governor active=%v fps=%d, want idle", g.Active(), g.FPS())
	}
	if g.Interval() != time.Second/IdleFPS {
		t.Errorf("Interval() = %v", g.Interval())
	}

	steps := []struct {
		name        string
		moved       bool
		at          time.Duration
		wantFPS     int
		wantChanged bool
	}{
		{name: "still", moved: false, at: 0, wantFPS: IdleFPS},
		{name: "motion wakes", moved: true, at: 100 * time.Millisecond, wantFPS: ActiveFPS, wantChanged: true},
		{name: "more motion", moved: true, at: 200 * time.Millisecond, wantFPS: ActiveFPS},
		{name: "quiet within timeout", moved: false, at: 2 * time.Second, wantFPS: ActiveFPS},
		{name: "quiet past timeout", moved: false, at: 2300 * time.Millisecond, wantFPS: IdleFPS, wantChanged: true},
		{name: "still idle", moved: false, at: 5 * time.Second, wantFPS: IdleFPS},
	}

	for _, s := range steps {
		fps, changed := g.Observe(s.moved, start.Add(s.at))
		if fps != s.wantFPS || changed != s.wantChanged {
			t.Errorf("%s: Observe() = (%d, %v), want (%d, %v)", s.name, fps, changed, s.wantFPS, s.wantChanged)
		}
	}
}

func TestGovernor_ZeroRates(t *testing.T) {
	g := &Governor{}
	if g.Interval() != time.Second/IdleFPS {
		t.Errorf("Interval() with zero rates = %v", g.Interval())
	}
}
