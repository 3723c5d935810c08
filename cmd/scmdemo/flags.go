package main

import "flag"

// Command-line flags controlling the demo's terrain and rendering setup.
var (
	bulldozingFlag = flag.Bool("bulldozing", true, "enable soil bulldozing (displaced-mass redistribution)")
	debugFlag      = flag.Bool("debug", false, "show FPS and per-stage timing overlay")
	fieldFlag      = flag.String("field", "height", "visualization field: height, sigma, sinkage, or erosion")
	colormapFlag   = flag.String("colormap", "ColdHot", "cogentcore colormap name used for the false-color overlay")
)
