package capture

import "time"

// Detection rates.
const (
	IdleFPS     = 5
	ActiveFPS   = 15
	IdleTimeout = 2 * time.Second
)

// Governor switches the capture rate between idle and active. Motion makes
// it active; IdleTimeout without motion makes it idle again. It only tunes
// the rate: frames are classified in both modes.
type Governor struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	active     bool
	lastMotion time.Time
}

// NewGovernor creates a governor with the default rates, starting idle.
func NewGovernor() *Governor {
	return &Governor{IdleFPS: IdleFPS, ActiveFPS: ActiveFPS, IdleTimeout: IdleTimeout}
}

// Observe records whether the latest frame moved and reports the rate to
// use and whether it changed.
func (g *Governor) Observe(moved bool, now time.Time) (fps int, changed bool) {
	switch {
	case moved:
		g.lastMotion = now
		if !g.active {
			g.active = true
			changed = true
		}
	case g.active && now.Sub(g.lastMotion) > g.IdleTimeout:
		g.active = false
		changed = true
	}
	return g.FPS(), changed
}

// Active reports whether the governor is in the active rate.
func (g *Governor) Active() bool {
	return g.active
}

// FPS returns the current rate.
func (g *Governor) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval returns the tick interval for the current rate.
func (g *Governor) Interval() time.Duration {
	fps := g.FPS()
	if fps <= 0 {
		fps = IdleFPS
	}
	return time.Second / time.Duration(fps)
}
