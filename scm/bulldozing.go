package scm

// raiseBoundaries is bulldozing stage 1 (serial): for each patch, sum
// step_plastic_flow*dt across its cells that actually produced positive
// pressure this step, and spread it over the patch's boundary (4-neighbors
// of those cells that are absent from the store or not currently in
// contact). At patch seams a cell that borders two patches is raised once
// per patch touching it — a known artifact, preserved rather than fixed.
func (t *Terrain) raiseBoundaries(patches []*Patch) []CellIndex {
	inContact := t.lastHitCells

	var order []CellIndex
	seen := make(map[CellIndex]bool)

	for _, p := range patches {
		var q float32
		for _, c := range p.Cells {
			if !inContact[c] {
				continue
			}
			if n, ok := t.store.Get(c); ok {
				q += n.StepPlasticFlow * t.dt
			}
		}
		if q <= 0 {
			continue
		}
		var boundary []CellIndex
		inBoundarySet := make(map[CellIndex]bool)
		for _, c := range p.Cells {
			if !inContact[c] {
				continue
			}
			for _, nb := range c.neighbors4() {
				if !t.store.Grid().InGrid(nb.I, nb.J) {
					continue
				}
				if inContact[nb] {
					continue
				}
				if inBoundarySet[nb] {
					continue
				}
				inBoundarySet[nb] = true
				boundary = append(boundary, nb)
			}
		}
		if len(boundary) == 0 {
			continue
		}
		raise := t.bulldozing.FlowFactor * q / float32(len(boundary))
		for _, c := range boundary {
			n := t.store.GetOrCreate(c)
			t.addMaterialToNode(n, raise)
			n.Erosion = true
			t.store.MarkModified(c)
			if !seen[c] {
				seen[c] = true
				order = append(order, c)
			}
		}
	}
	return order
}

// dilateErosionDomain is stage 2: P concentric 4-connected expansions from
// the boundary set, including any neighbor not currently in contact,
// returned in deterministic insertion order for stage 3.
func (t *Terrain) dilateErosionDomain(boundary []CellIndex) []CellIndex {
	order := append([]CellIndex(nil), boundary...)
	seen := make(map[CellIndex]bool, len(boundary))
	for _, c := range boundary {
		seen[c] = true
	}
	frontier := boundary
	for p := 0; p < t.bulldozing.Propagations; p++ {
		var next []CellIndex
		for _, c := range frontier {
			for _, nb := range c.neighbors4() {
				if !t.store.Grid().InGrid(nb.I, nb.J) || seen[nb] {
					continue
				}
				if _, contacted := t.lastHitCells[nb]; contacted {
					continue
				}
				seen[nb] = true
				n := t.store.GetOrCreate(nb)
				n.Erosion = true
				order = append(order, nb)
				next = append(next, nb)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return order
}

// smoothErosionDomain is stage 3: for each iteration, for every
// erosion-domain cell and each of its 4 materialized neighbors, apply
// mass equalization then the slope limit.
func (t *Terrain) smoothErosionDomain(domain []CellIndex) {
	tanLimit := t.bulldozing.slopeTan()
	delta := t.store.Grid().Delta
	for iter := 0; iter < t.bulldozing.Iterations; iter++ {
		for _, c := range domain {
			cn, ok := t.store.Get(c)
			if !ok {
				continue
			}
			for _, nb := range c.neighbors4() {
				nn, ok := t.store.Get(nb)
				if !ok {
					continue
				}
				t.equalizeMass(cn, nn)
				t.limitSlope(cn, nn, delta, tanLimit)
			}
		}
	}
}

// equalizeMass transfers half of the remainder difference divided by four
// (one share per 4-neighbor) between two neighbors, from the
// higher-remainder cell to the lower. Symmetric
// half-differences over 4 neighbors can over-transfer when a node has
// multiple high-remainder neighbors in the same smoothing iteration; this
// is a known artifact, preserved rather than fixed.
func (t *Terrain) equalizeMass(a, b *Node) {
	diff := a.MassRemainder - b.MassRemainder
	amount := diff / 2 / 4
	if amount > 0 {
		t.removeMaterialFromNode(a, amount)
		t.addMaterialToNode(b, amount)
	} else if amount < 0 {
		t.removeMaterialFromNode(b, -amount)
		t.addMaterialToNode(a, -amount)
	}
}

// limitSlope transfers half of the excess above the slope limit, divided by
// four, from the higher cell to the lower, using the signed height
// difference including remainder.
func (t *Terrain) limitSlope(a, b *Node, delta, tanLimit float32) {
	dy := (a.Level + a.MassRemainder) - (b.Level + b.MassRemainder)
	limit := delta * tanLimit
	excess := dy - limit
	if excess > 0 {
		amount := excess / 2 / 4
		t.removeMaterialFromNode(a, amount)
		t.addMaterialToNode(b, amount)
	} else if -dy-limit > 0 {
		excess = -dy - limit
		amount := excess / 2 / 4
		t.removeMaterialFromNode(b, amount)
		t.addMaterialToNode(a, amount)
	}
}

// addMaterialToNode raises a node by amount, clamping so level never
// exceeds hit_level when the node is in contact this step; overflow parks
// in massremainder. level_initial is incremented by the same amount so
// future sinkage references the new surface.
func (t *Terrain) addMaterialToNode(n *Node, amount float32) {
	if amount <= 0 {
		return
	}
	cap := amount
	if n.HitLevel < infHit {
		room := n.HitLevel - n.Level
		if room < 0 {
			room = 0
		}
		if cap > room {
			cap = room
		}
	}
	n.Level += cap
	n.LevelInitial += cap
	overflow := amount - cap
	if overflow > 0 {
		n.MassRemainder += overflow
	}
}

// removeMaterialFromNode drains massremainder before reducing level.
func (t *Terrain) removeMaterialFromNode(n *Node, amount float32) {
	if amount <= 0 {
		return
	}
	if n.MassRemainder >= amount {
		n.MassRemainder -= amount
		return
	}
	remaining := amount - n.MassRemainder
	n.MassRemainder = 0
	n.Level -= remaining
	n.LevelInitial -= remaining
}
