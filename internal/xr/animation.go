package xr

import "github.com/banshee-data/xrsession/internal/xr/host"

// animation re-requests a host frame after each callback until stopped.
type animation struct {
	session host.Session
	loop    host.FrameRequestCallback
	handle  int
	running bool

	// gen identifies the current loop. Callbacks from an earlier loop
	// never re-request.
	gen int
}

func (a *animation) setContext(s host.Session) { a.session = s }

func (a *animation) setLoop(fn host.FrameRequestCallback) { a.loop = fn }

func (a *animation) start() {
	if a.running || a.loop == nil || a.session == nil {
		return
	}
	a.gen++
	a.handle = a.session.RequestAnimationFrame(a.onFrame)
	a.running = true
}

func (a *animation) onFrame(t float64, frame host.Frame) {
	gen := a.gen
	a.loop(t, frame)
	// The loop may have ended the session or started another one.
	if !a.running || a.gen != gen {
		return
	}
	a.handle = a.session.RequestAnimationFrame(a.onFrame)
}

func (a *animation) stop() {
	if a.running && a.session != nil {
		a.session.CancelAnimationFrame(a.handle)
	}
	a.running = false
}
