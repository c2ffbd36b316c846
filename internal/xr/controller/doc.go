// Package controller binds host input sources to application-facing
// controller objects.
//
// Each Controller exposes up to three scene nodes (target ray, grip and
// hand) that follow the bound input source's poses. Slots maps input
// sources to controllers so that a controller index stays attached to the
// same physical source for as long as that source is connected.
package controller
