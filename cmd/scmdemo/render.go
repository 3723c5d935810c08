package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"scmterrain/scm"
)

// Draw bulk-uploads the current heightfield render and overlays the
// probe body's footprint.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.mesh.pixels)

	px, py, ok := g.probeScreenPos()
	if ok {
		r := 3
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy > r*r {
					continue
				}
				x, y := px+dx, py+dy
				if x >= 0 && x < w && y >= 0 && y < h {
					screen.Set(x, y, color.RGBA{255, 40, 40, 255})
				}
			}
		}
	}

	if *debugFlag {
		timers := g.terrain.Timers()
		counters := g.terrain.Counters()
		msg := fmt.Sprintf(
			"FPS: %.1f\nstep: %.2f ms\nray casts: %d hits: %d patches: %d\n%s %.3fms %s %.3fms %s %.3fms %s %.3fms",
			ebiten.ActualFPS(), g.lastStepDuration.Seconds()*1000,
			counters.RayCasts, counters.RayHits, counters.ContactPatches,
			scm.StageActiveDomain, timers.Millis(scm.StageActiveDomain),
			scm.StageRayCast, timers.Millis(scm.StageRayCast),
			scm.StageConstitutive, timers.Millis(scm.StageConstitutive),
			scm.StageForceDistribution, timers.Millis(scm.StageForceDistribution),
		)
		ebitenutil.DebugPrint(screen, msg)
	}
}

func (g *Game) probeScreenPos() (int, int, bool) {
	grid := g.terrain.Store().Grid()
	i := int(g.world.body.pos.X / grid.Delta)
	j := int(g.world.body.pos.Y / grid.Delta)
	px := i + w/2
	py := h/2 - j
	if px < 0 || px >= w || py < 0 || py >= h {
		return 0, 0, false
	}
	return px, py, true
}
