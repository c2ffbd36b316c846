// Package xr is the immersive session core.
//
// A Manager takes a host session through Idle, Starting and Presenting,
// chooses between native and emulated compositing, and on every host frame
// refreshes overlay layers, eye cameras and the unified culling camera,
// controller poses and detected planes before handing the frame to the
// application. Everything except the admin status snapshot runs on the
// goroutine that delivers host callbacks.
package xr
