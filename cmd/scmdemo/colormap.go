package main

import (
	"log/slog"

	"cogentcore.org/core/colors/colormap"
)

// paletteColormap adapts a named cogentcore colormap to scm.Colormap,
// the same AvailableMaps[name].Map(pos) lookup used by the library's own
// views.ColorMapValue preview swatch.
type paletteColormap struct {
	cm *colormap.Map
}

func newPaletteColormap(name string) *paletteColormap {
	cm, ok := colormap.AvailableMaps[name]
	if !ok {
		slog.Error("unknown colormap, falling back to ColdHot", "name", name)
		cm = colormap.AvailableMaps["ColdHot"]
	}
	return &paletteColormap{cm: cm}
}

func (p *paletteColormap) Get(value, vmin, vmax float32) (r, g, b, a float32) {
	pos := float32(0.5)
	if vmax > vmin {
		pos = (value - vmin) / (vmax - vmin)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	cr, cg, cb, ca := p.cm.Map(pos).RGBA()
	return float32(cr) / 65535, float32(cg) / 65535, float32(cb) / 65535, float32(ca) / 65535
}
