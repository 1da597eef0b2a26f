package terrain

// stitch fills Patch.Stitch for every patch in the list.
//
// A coverage grid with one cell per half leaf records the level of the quadrant drawn over each
// cell. A neighbour coarser than a patch is at least as large as the patch side and aligned to
// it, so a single probe just outside each side finds it.
func (l *RenderList) stitch(t *Tree, maxStitch int) {
	if len(l.Patches) == 0 {
		l.cols, l.rows = 0, 0
		return
	}

	cell := t.base / 2
	l.cols, l.rows = t.width/cell, t.height/cell
	n := l.cols * l.rows
	if cap(l.coverage) < n {
		l.coverage = make([]int8, n)
	}
	l.coverage = l.coverage[:n]
	for i := range l.coverage {
		l.coverage[i] = -1
	}

	for i := range l.Patches {
		p := &l.Patches[i]
		x0, z0, size := p.Extent(t.base)
		half := size / 2
		for _, q := range Quadrants {
			if !p.Mask.Has(q) {
				continue
			}
			qx, qz := x0, z0
			dx, dz := q.direction()
			if dx > 0 {
				qx += half
			}
			if dz > 0 {
				qz += half
			}
			l.fill(qx/cell, qz/cell, half/cell, int8(p.Level))
		}
	}

	for i := range l.Patches {
		p := &l.Patches[i]
		p.Stitch = [4]uint8{}
		if maxStitch <= 0 {
			continue
		}
		x0, z0, size := p.Extent(t.base)
		cx, cz, span := x0/cell, z0/cell, size/cell
		probes := [4][2]int{
			SideLeft:   {cx - 1, cz},
			SideRight:  {cx + span, cz},
			SideTop:    {cx, cz - 1},
			SideBottom: {cx, cz + span},
		}
		for side, pr := range probes {
			if d := int(l.levelAt(pr[0], pr[1])) - p.Level; d > 0 {
				p.Stitch[side] = uint8(min(d, maxStitch))
			}
		}
	}
}

// fill marks a span×span block of cells, clipped to the grid.
func (l *RenderList) fill(cx, cz, span int, level int8) {
	for z := max(cz, 0); z < min(cz+span, l.rows); z++ {
		row := l.coverage[z*l.cols : (z+1)*l.cols]
		for x := max(cx, 0); x < min(cx+span, l.cols); x++ {
			row[x] = level
		}
	}
}

// levelAt returns the level drawn over a cell, or -1 when nothing covers it.
func (l *RenderList) levelAt(cx, cz int) int8 {
	if cx < 0 || cz < 0 || cx >= l.cols || cz >= l.rows {
		return -1
	}
	return l.coverage[cz*l.cols+cx]
}

// CoverageLevel reports the level drawn over heightfield point (x, z) after the last Select,
// or -1 if nothing is drawn there.
func (l *RenderList) CoverageLevel(t *Tree, x, z int) int {
	if x < 0 || z < 0 {
		return -1
	}
	cell := t.base / 2
	return int(l.levelAt(x/cell, z/cell))
}
