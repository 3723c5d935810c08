package scm

// NodeSnapshot is one entry of the persisted state format: a cell index
// and its height.
type NodeSnapshot struct {
	Cell  CellIndex
	Level float32
}

// GetModifiedNodes returns the cells touched this step, or (all=true)
// every node present in the store — the full checkpoint format.
func (t *Terrain) GetModifiedNodes(all bool) []NodeSnapshot {
	if all {
		out := make([]NodeSnapshot, 0, t.store.Len())
		t.store.All(func(n *Node) {
			out = append(out, NodeSnapshot{Cell: n.Index, Level: n.Level})
		})
		return out
	}
	cells := t.store.ModifiedCells()
	out := make([]NodeSnapshot, 0, len(cells))
	for _, c := range cells {
		if n, ok := t.store.Get(c); ok {
			out = append(out, NodeSnapshot{Cell: c, Level: n.Level})
		}
	}
	return out
}

// SetModifiedNodes bulk-overwrites heights for checkpoint restore. This is
// a documented lossy checkpoint: level_initial is recomputed as level,
// normal is recomputed from the base heightfield, and every other
// per-node field (sinkage history, shear state, yield surface, bulldozing
// state) is reset to its zero value.
func (t *Terrain) SetModifiedNodes(snapshots []NodeSnapshot) {
	for _, s := range snapshots {
		n := t.store.GetOrCreate(s.Cell)
		n.Level = s.Level
		n.LevelInitial = s.Level
		n.Normal = t.store.Grid().BaseNormal(s.Cell.I, s.Cell.J)
		n.HitLevel = infHit
		n.Sinkage, n.SinkageElastic, n.SinkagePlastic = 0, 0, 0
		n.Sigma, n.SigmaYield = 0, 0
		n.Kshear, n.Tau = 0, 0
		n.Erosion, n.MassRemainder, n.StepPlasticFlow = false, 0, 0
		t.store.MarkModified(s.Cell)
	}
}
