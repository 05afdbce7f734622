package layout

import "sort"

// point is a node center produced by the layered placement.
type point struct {
	X, Y float64
}

// layeredGraph runs the Sugiyama pipeline over the main-flow subgraph:
// cycle-safe rank assignment, two barycenter ordering sweeps, and coordinate
// assignment. Nodes are addressed by their insertion index, which doubles as
// the deterministic tie-break everywhere.
type layeredGraph struct {
	n       int
	rankSep float64
	nodeSep float64
	width   []float64
	height  []float64
	succ    [][]int
	pred    [][]int
	hasEdge map[[2]int]struct{}
}

func newLayeredGraph(n int, rankSep, nodeSep float64) *layeredGraph {
	return &layeredGraph{
		n:       n,
		rankSep: rankSep,
		nodeSep: nodeSep,
		width:   make([]float64, n),
		height:  make([]float64, n),
		succ:    make([][]int, n),
		pred:    make([][]int, n),
		hasEdge: make(map[[2]int]struct{}),
	}
}

// addEdge records u → v, ignoring self-loops and duplicate pairs. Parallel
// edges carry no extra layout information.
func (lg *layeredGraph) addEdge(u, v int) {
	if u == v {
		return
	}
	if _, dup := lg.hasEdge[[2]int{u, v}]; dup {
		return
	}
	lg.hasEdge[[2]int{u, v}] = struct{}{}
	lg.succ[u] = append(lg.succ[u], v)
	lg.pred[v] = append(lg.pred[v], u)
}

// place returns the center coordinates of every node, translated so the
// smallest top-left anchor sits at the origin.
func (lg *layeredGraph) place() []point {
	if lg.n == 0 {
		return nil
	}

	asucc := lg.acyclicSucc()
	apred := make([][]int, lg.n)
	for u, vs := range asucc {
		for _, v := range vs {
			apred[v] = append(apred[v], u)
		}
	}

	rank := lg.ranks(apred)
	order := lg.order(rank, asucc, apred)
	return lg.coordinates(rank, order)
}

// acyclicSucc returns the successor lists with back edges removed. A DFS in
// insertion order marks nodes on the current stack; any edge into the stack
// is a back edge and is dropped from ranking so longest-path terminates.
func (lg *layeredGraph) acyclicSucc() [][]int {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, lg.n)
	acyclic := make([][]int, lg.n)

	var dfs func(u int)
	dfs = func(u int) {
		state[u] = onStack
		for _, v := range lg.succ[u] {
			switch state[v] {
			case unvisited:
				acyclic[u] = append(acyclic[u], v)
				dfs(v)
			case done:
				acyclic[u] = append(acyclic[u], v)
			}
		}
		state[u] = done
	}
	for u := 0; u < lg.n; u++ {
		if state[u] == unvisited {
			dfs(u)
		}
	}
	return acyclic
}

// ranks assigns each node the length of the longest acyclic path from any
// root, so every edge points at least one rank to the right.
func (lg *layeredGraph) ranks(apred [][]int) []int {
	rank := make([]int, lg.n)
	resolved := make([]bool, lg.n)

	var rankOf func(v int) int
	rankOf = func(v int) int {
		if resolved[v] {
			return rank[v]
		}
		resolved[v] = true // set before recursion; apred is acyclic
		r := 0
		for _, u := range apred[v] {
			if pr := rankOf(u) + 1; pr > r {
				r = pr
			}
		}
		rank[v] = r
		return r
	}
	for v := 0; v < lg.n; v++ {
		rankOf(v)
	}
	return rank
}

// order groups nodes per rank in insertion order, then runs one downward and
// one upward barycenter sweep to reduce crossings. Ties keep their current
// position (stable sort), which keeps the result deterministic.
func (lg *layeredGraph) order(rank []int, asucc, apred [][]int) [][]int {
	maxRank := 0
	for _, r := range rank {
		if r > maxRank {
			maxRank = r
		}
	}
	order := make([][]int, maxRank+1)
	for v := 0; v < lg.n; v++ {
		order[rank[v]] = append(order[rank[v]], v)
	}

	pos := make([]float64, lg.n)
	refresh := func() {
		for _, layer := range order {
			for i, v := range layer {
				pos[v] = float64(i)
			}
		}
	}
	refresh()

	for r := 1; r <= maxRank; r++ {
		order[r] = reorder(order[r], apred, pos)
		refresh()
	}
	for r := maxRank - 1; r >= 0; r-- {
		order[r] = reorder(order[r], asucc, pos)
		refresh()
	}
	return order
}

// reorder sorts one layer by the barycenter of each node's neighbors.
// Neighborless nodes keep their current slot.
func reorder(layer []int, neighbors [][]int, pos []float64) []int {
	type entry struct {
		v  int
		bc float64
	}
	entries := make([]entry, len(layer))
	for i, v := range layer {
		bc := float64(i)
		if ns := neighbors[v]; len(ns) > 0 {
			sum := 0.0
			for _, u := range ns {
				sum += pos[u]
			}
			bc = sum / float64(len(ns))
		}
		entries[i] = entry{v: v, bc: bc}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].bc < entries[j].bc
	})
	out := make([]int, len(layer))
	for i, e := range entries {
		out[i] = e.v
	}
	return out
}

// coordinates assigns centers: each rank is a column whose width is its
// widest node, columns advance left to right by rankSep, and nodes stack
// vertically within a column centered on the axis. The whole drawing is then
// translated so the minimum top-left anchor lands on the origin.
func (lg *layeredGraph) coordinates(rank []int, order [][]int) []point {
	centers := make([]point, lg.n)

	x := 0.0
	for _, layer := range order {
		colWidth := 0.0
		for _, v := range layer {
			if lg.width[v] > colWidth {
				colWidth = lg.width[v]
			}
		}

		total := 0.0
		for _, v := range layer {
			total += lg.height[v]
		}
		total += lg.nodeSep * float64(len(layer)-1)

		y := -total / 2
		for _, v := range layer {
			centers[v] = point{X: x + colWidth/2, Y: y + lg.height[v]/2}
			y += lg.height[v] + lg.nodeSep
		}
		x += colWidth + lg.rankSep
	}

	minX, minY := 0.0, 0.0
	for v := 0; v < lg.n; v++ {
		if left := centers[v].X - lg.width[v]/2; v == 0 || left < minX {
			minX = left
		}
		if top := centers[v].Y - lg.height[v]/2; v == 0 || top < minY {
			minY = top
		}
	}
	for v := range centers {
		centers[v].X -= minX
		centers[v].Y -= minY
	}
	return centers
}
