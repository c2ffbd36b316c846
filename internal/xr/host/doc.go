// Package host declares what the session core consumes from its two
// collaborators: the immersive runtime (sessions, frames, poses, input
// sources, detected planes, compositor layers) and the graphics backend
// (context attributes, render targets, texture binding).
//
// Implementations live outside this module; internal/xr/simhost provides a
// synthetic one for tests and demos.
package host
