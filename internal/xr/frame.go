package xr

import (
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/scene"
	"github.com/banshee-data/xrsession/internal/xr/stereo"
)

// onAnimationFrame is one session tick. Order: overlays, viewer pose and
// cameras, controllers, planes, then the application callback.
func (m *Manager) onAnimationFrame(t float64, frame host.Frame) {
	sc := m.sc
	if sc == nil {
		return
	}
	m.frame = frame
	defer func() { m.frame = nil }()

	m.drawingLayer = true
	m.layers.Render(frame)
	m.drawingLayer = false

	ref := m.ReferenceSpace()
	pose := frame.ViewerPose(ref)
	m.metrics.FrameTicked(pose != nil)

	// Without a pose the cameras and controllers keep last tick's state.
	if pose != nil {
		m.updateViews(sc, pose)
		m.slots.Update(frame, ref)
	}

	if detected, ok := frame.DetectedPlanes(); ok {
		m.updatePlanes(detected)
	}

	if m.onFrame != nil {
		m.onFrame(t, frame)
	}

	m.recordFrame(t, pose)
}

// updateViews refreshes one eye camera per view and the unified camera.
func (m *Manager) updateViews(sc *sessionContext, pose *host.ViewerPose) {
	if sc.baseLayer != nil {
		m.backend.SetRenderTargetFramebuffer(sc.target, sc.baseLayer.Framebuffer())
		m.backend.SetRenderTarget(sc.target)
	}

	rebuild := false
	if len(pose.Views) != len(m.camera.Cameras) {
		m.camera.Cameras = m.camera.Cameras[:0]
		rebuild = true
	}

	for i, view := range pose.Views {
		var vp host.Viewport
		if sc.baseLayer != nil {
			vp = sc.baseLayer.Viewport(view)
		} else {
			sub := sc.binding.ViewSubImage(sc.projLayer, view)
			vp = sub.Viewport

			// Views are packed side by side in one texture; bind it once.
			if i == 0 {
				var depth host.Texture
				if !sc.projLayer.IgnoreDepthValues() {
					depth = sub.DepthStencilTexture
				}
				m.backend.SetRenderTargetTextures(sc.target, sub.ColorTexture, depth)
				m.backend.SetRenderTarget(sc.target)
			}
		}

		cam := m.eye(i)
		cam.Matrix = view.Transform.Matrix()
		cam.ProjectionMatrix = view.ProjectionMatrix
		cam.Viewport = scene.Viewport{X: vp.X, Y: vp.Y, Width: vp.Width, Height: vp.Height}
		cam.UpdateWorldFrom(nil)

		if i == 0 {
			m.camera.Matrix = cam.Matrix
		}
		if rebuild {
			m.camera.Cameras = append(m.camera.Cameras, cam)
		}
	}

	m.camera.UpdateWorldFrom(nil)
	m.camera.Position, m.camera.Quaternion, m.camera.Scale = m.camera.MatrixWorld.Decompose()
	stereo.UpdateArrayCamera(m.camera)
}

func (m *Manager) updatePlanes(detected []host.Plane) {
	m.events.Dispatch(event.Event{Type: EventPlanesDetected, Data: detected})

	ch := m.planes.Update(detected)
	for _, p := range ch.Removed {
		m.metrics.PlaneEvent("removed")
		m.events.Dispatch(event.Event{Type: EventPlaneRemoved, Data: p})
	}
	for _, p := range ch.Added {
		m.metrics.PlaneEvent("added")
		m.events.Dispatch(event.Event{Type: EventPlaneAdded, Data: p})
	}
	for _, p := range ch.Changed {
		m.metrics.PlaneEvent("changed")
		m.events.Dispatch(event.Event{Type: EventPlaneChanged, Data: p})
	}
}

// UpdateCamera aligns the XR cameras with the application's camera: its
// depth range and parent transform. user receives the head pose. It does
// nothing outside a session.
func (m *Manager) UpdateCamera(user *scene.Camera) {
	sc := m.sc
	if sc == nil {
		return
	}

	m.camera.Near, m.camera.Far = user.Near, user.Far
	for _, c := range m.eyes {
		c.Near, c.Far = user.Near, user.Far
	}

	// A new depth range applies from the host's next frame.
	if !sc.depthPushed || sc.depthNear != user.Near || sc.depthFar != user.Far {
		near, far := user.Near, user.Far
		sc.session.UpdateRenderState(host.RenderStateInit{DepthNear: &near, DepthFar: &far})
		sc.depthPushed = true
		sc.depthNear, sc.depthFar = near, far
	}

	parent := user.Parent()
	m.camera.UpdateWorldFrom(parent)
	for _, c := range m.camera.Cameras {
		c.UpdateWorldFrom(parent)
	}
	m.camera.Position, m.camera.Quaternion, m.camera.Scale = m.camera.MatrixWorld.Decompose()

	user.SetMatrix(m.camera.Matrix)
	user.UpdateWorldFrom(parent)
	for _, child := range user.Children() {
		child.UpdateMatrixWorld()
	}

	stereo.UpdateArrayCamera(m.camera)
}

// CameraFor returns the camera a frame should be drawn with and its
// per-view cameras. While presenting with Enabled set this is the unified
// XR camera, refreshed from user first when CameraAutoUpdate is set;
// otherwise it is user alone.
func (m *Manager) CameraFor(user *scene.Camera) (*scene.Camera, []*scene.Camera) {
	if !m.Enabled || !m.IsPresenting() {
		return user, []*scene.Camera{user}
	}
	if m.CameraAutoUpdate {
		m.UpdateCamera(user)
	}
	return &m.camera.Camera, m.camera.Cameras
}

// Render2DFrame is the frame path outside a session: the application
// callback runs, then every overlay redraws into its own surface.
func (m *Manager) Render2DFrame(t float64) {
	if m.sc != nil {
		return
	}
	if m.onFrame != nil {
		m.onFrame(t, nil)
	}
	m.layers.Render2D()
}
