package scm

import "math"

// SoilParameters are the Bekker/Janosi-Hanamoto/Krenn-Hirzinger global
// defaults. Units follow the classic formulation: Kphi and Kc in Pa/m^n
// and Pa/m^(n-1) respectively (Bekker's classic formulation folds the
// exponent into both), n dimensionless, c in Pa, phi in degrees, J in
// meters, K in Pa/m, R in Pa*s/m.
type SoilParameters struct {
	Kphi   float32
	Kc     float32
	N      float32
	C      float32
	PhiDeg float32
	J      float32
	K      float32
	R      float32
}

// DefaultSoilParameters returns a generic dry-sand-like preset, a
// reasonable starting point before SetSoilParameters is called.
func DefaultSoilParameters() SoilParameters {
	return SoilParameters{
		Kphi: 5301000, Kc: 1284, N: 1.1,
		C: 1700, PhiDeg: 28, J: 0.01,
		K: 5e7, R: 0,
	}
}

func (p SoilParameters) mu() float32 {
	return float32(math.Tan(float64(p.PhiDeg) * math.Pi / 180))
}

// SoilCallback supplies location-dependent soil parameters, shadowing the
// global defaults for one cell only.
type SoilCallback func(loc [2]float32) SoilOverride

// paramsAt resolves the effective soil parameters for a node: cached
// override if present and still fresh, else the callback (refreshed when
// LevelInitial drifted since the last cache fill), else the global
// defaults.
func (t *Terrain) paramsAt(n *Node) SoilParameters {
	if t.soilCB == nil {
		return t.soil
	}
	if n.soilOverride == nil || n.soilOverrideAsOfLI != n.LevelInitial {
		x, y := n.Index.worldXY(t.store.Grid().Delta)
		ov := t.soilCB([2]float32{x, y})
		n.soilOverride = &ov
		n.soilOverrideAsOfLI = n.LevelInitial
	}
	o := n.soilOverride
	return SoilParameters{Kphi: o.Kphi, Kc: o.Kc, N: o.N, C: o.C, PhiDeg: o.PhiDeg, J: o.J, K: o.K, R: o.R}
}

// BulldozingParameters controls the bulldozing raise/dilate/smooth
// stages.
type BulldozingParameters struct {
	ErosionAngleDeg   float32
	FlowFactor        float32
	Iterations        int
	Propagations      int
}

// DefaultBulldozingParameters matches common defaults used across the
// original implementation's demos.
func DefaultBulldozingParameters() BulldozingParameters {
	return BulldozingParameters{ErosionAngleDeg: 40, FlowFactor: 1.2, Iterations: 3, Propagations: 10}
}

func (p BulldozingParameters) slopeTan() float32 {
	return float32(math.Tan(float64(p.ErosionAngleDeg) * math.Pi / 180))
}

// ContactableOverride is the optional per-object soil blend a contactable
// may carry: Alpha==0 means "use the terrain's tau unmodified", the zero
// value's natural meaning.
type ContactableOverride struct {
	C, Mu, J float32
	Alpha    float32 // area-fraction blend weight in [0,1]
}
