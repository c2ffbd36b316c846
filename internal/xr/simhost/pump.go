package simhost

import (
	"context"
	"time"

	"github.com/banshee-data/xrsession/internal/timeutil"
)

// SceneFunc builds the frame for tick n at time t (milliseconds since the
// pump started).
type SceneFunc func(n int, t float64) *Frame

// Pump delivers session frames on a ticker, like a display's vsync.
type Pump struct {
	Session  *Session
	Clock    timeutil.Clock
	Interval time.Duration
	Scene    SceneFunc
}

// Run delivers up to frames ticks, stopping early when ctx is done or the
// session ends. It returns the number of ticks delivered. A nil frame from
// Scene still uses up its tick but runs no callbacks.
func (p *Pump) Run(ctx context.Context, frames int) (int, error) {
	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ticker := clock.NewTicker(p.Interval)
	defer ticker.Stop()

	start := clock.Now()
	n := 0
	for n < frames && !p.Session.Ended() {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case now := <-ticker.C():
			t := timeutil.FrameTimeMillis(start, now)
			p.Session.Tick(t, p.Scene(n, t))
			n++
		}
	}
	return n, nil
}
