// Package scene is the minimal scene-graph surface the immersive session
// core drives: transform nodes, perspective and array cameras, and the proxy
// meshes that stand in for overlay layers.
//
// Rendering, geometry generation and materials beyond what the session core
// reconfigures are the hosting renderer's concern; geometry values here are
// descriptors, not vertex data.
package scene
