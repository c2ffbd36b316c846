package xr

import (
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/xrsession/internal/httputil"
	"github.com/banshee-data/xrsession/internal/xr/host"
)

// Status is a point-in-time summary of the manager, safe to read from any
// goroutine.
type Status struct {
	State              string  `json:"state"`
	Mode               string  `json:"mode,omitempty"`
	ReferenceSpaceType string  `json:"reference_space_type"`
	FramebufferScale   float64 `json:"framebuffer_scale_factor"`
	Frames             uint64  `json:"frames"`
	PoselessFrames     uint64  `json:"poseless_frames"`
	LastFrameTime      float64 `json:"last_frame_time_ms"`
	Views              int     `json:"views"`
	Planes             int     `json:"planes"`
	Controllers        int     `json:"controllers"`
	BoundControllers   int     `json:"bound_controllers"`
	OverlayLayers      int     `json:"overlay_layers"`
}

// Status returns the latest snapshot.
func (m *Manager) Status() Status {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.status
}

// publishStatus refreshes the snapshot from manager state. Frame counters
// are kept; they reset only when a new session starts.
func (m *Manager) publishStatus() {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()

	if m.state == StateStarting {
		m.status.Frames = 0
		m.status.PoselessFrames = 0
		m.status.LastFrameTime = 0
	}
	m.status.State = m.state.String()
	m.status.Mode = m.mode()
	m.status.ReferenceSpaceType = m.refSpaceType
	m.status.FramebufferScale = m.framebufferScale
	m.status.Views = len(m.camera.Cameras)
	m.status.Planes = m.planes.Len()
	m.status.Controllers = m.slots.Len()
	m.status.BoundControllers = m.slots.Bound()
	m.status.OverlayLayers = len(m.layers.Layers())
}

func (m *Manager) recordFrame(t float64, pose *host.ViewerPose) {
	m.publishStatus()

	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.status.Frames++
	if pose == nil {
		m.status.PoselessFrames++
	}
	m.status.LastFrameTime = t
}

// AttachAdminRoutes serves the status snapshot as JSON at /debug/xr-state.
func (m *Manager) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("xr-state", "immersive session state", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, m.Status())
	})
}
