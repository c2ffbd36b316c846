// Package layers manages overlay layers: flat or curved surfaces drawn
// alongside the main scene.
//
// Every layer owns an off-screen render target and a proxy mesh the
// application places in its scene. Without a native-capable session the
// proxy samples the render target like any textured surface (emulated
// compositing). While a native-mode session is active each layer also holds
// a compositor layer handle; the proxy then draws nothing and only tracks
// placement, and the render target is pointed at the compositor's textures
// every frame.
package layers
