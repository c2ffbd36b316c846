// Package simhost is a synthetic immersive host: session, frames, input
// sources, detected planes and a graphics backend. It delivers frames
// synchronously through Session.Tick, or on a clock through Pump, and is
// used by tests and the xrsim demo.
//
// Nothing here is safe for concurrent use; drive a simulated session from
// one goroutine.
package simhost
