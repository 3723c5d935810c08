package main

// Simulation and rendering configuration constants for the SCM terrain
// demo: a single probe body dragged over a patch of deformable ground.
const (
	w, h        = 256, 256
	windowScale = 2

	gridHalfSizeMeters = 4.0
	cellSizeMeters     = gridHalfSizeMeters / (w / 2)

	probeRadius  = 0.3
	probeMass    = 40.0
	moveSpeed    = 2.0 // meters/sec, keyboard-driven probe velocity
	sinkSpeed    = 1.5 // meters/sec, vertical descent while held
	defaultDT    = 1.0 / 60.0
	workerCount  = 4

	fieldVMin = -0.05
	fieldVMax = 0.0
)
