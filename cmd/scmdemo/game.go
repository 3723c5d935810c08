package main

import (
	"log/slog"
	"time"

	"cogentcore.org/core/math32"
	"github.com/hajimehoshi/ebiten/v2"

	"scmterrain/scm"
)

// Game drives one scm.Terrain with a single keyboard-controlled probe
// body, re-running the full C3-C9 pipeline every tick and pushing the
// result into a pixelMesh for display.
type Game struct {
	terrain *scm.Terrain
	world   *probeWorld
	mesh    *pixelMesh
	cmap    *paletteColormap
	field   scm.Field

	lastStepDuration time.Duration
}

func newGame() *Game {
	grid, err := scm.InitializeFlat(gridHalfSizeMeters*2, gridHalfSizeMeters*2, cellSizeMeters)
	if err != nil {
		slog.Error("initializing terrain grid failed", "err", err)
		panic(err)
	}
	world := newProbeWorld()
	terrain, err := scm.NewTerrain(grid, world, identityFrame{}, workerCount)
	if err != nil {
		slog.Error("constructing terrain failed", "err", err)
		panic(err)
	}
	terrain.SetLoadSink(world)
	terrain.EnableBulldozing(*bulldozingFlag)

	g := &Game{
		terrain: terrain,
		world:   world,
		mesh:    newPixelMesh(grid.Nx, grid.Ny),
		cmap:    newPaletteColormap(*colormapFlag),
		field:   parseField(*fieldFlag),
	}
	return g
}

func parseField(name string) scm.Field {
	switch name {
	case "sigma":
		return scm.FieldSigma
	case "sinkage":
		return scm.FieldSinkage
	case "erosion":
		return scm.FieldErosion
	default:
		return scm.FieldHeight
	}
}

// Update moves the probe from keyboard input, steps the terrain, and
// refreshes the visualization buffer.
func (g *Game) Update() error {
	dx, dy, dz := 0.0, 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		dy += moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		dy -= moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		dx -= moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		dx += moveSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeySpace) {
		dz -= sinkSpeed
	} else {
		dz += sinkSpeed * 0.5
	}

	b := g.world.body
	b.vel = math32.Vec3(float32(dx), float32(dy), float32(dz))
	b.pos = b.pos.Add(b.vel.MulScalar(defaultDT))
	if b.pos.Z < -1 {
		b.pos.Z = -1
	}

	start := time.Now()
	g.terrain.Step(defaultDT)
	g.lastStepDuration = time.Since(start)

	g.terrain.RunVisualization(g.mesh, g.cmap, g.field, fieldVMin, fieldVMax)
	return nil
}

// Layout reports the logical screen size used by Ebiten.
func (g *Game) Layout(_, _ int) (int, int) { return w, h }
