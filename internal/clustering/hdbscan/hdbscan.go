// Package hdbscan implements hierarchical density-based clustering.
//
// The steps follow Campello, Moulavi and Sander (2013): core distances,
// a minimum spanning tree over mutual reachability distance, single-linkage
// hierarchy, condensed tree, and flat cluster extraction by excess of mass
// or by leaves. Distances are computed on demand so memory stays linear in
// the number of points.
package hdbscan

import (
	"context"
	"errors"
	"math"
	"sort"
)

// Noise is the label of points that belong to no cluster.
const Noise = -1

// minDistance replaces zero distances so lambda stays finite.
const minDistance = 1e-12

// Selection chooses how flat clusters are extracted from the condensed tree.
type Selection int

// Selection methods.
const (
	// ExcessOfMass picks the most persistent clusters.
	ExcessOfMass Selection = iota
	// Leaf picks the leaves of the condensed tree.
	Leaf
)

// Params configures a clustering run.
type Params struct {
	// MinClusterSize is the smallest group reported as a cluster.
	MinClusterSize int

	// MinSamples sets the neighbourhood used for core distances.
	// Zero means MinClusterSize.
	MinSamples int

	// Selection is the flat extraction method.
	Selection Selection

	// AllowSingleCluster lets the root be selected as the only cluster.
	AllowSingleCluster bool
}

// Result holds the flat clustering.
type Result struct {
	// Labels has one entry per input point: 0..Clusters-1 or Noise.
	Labels []int

	// Clusters is the number of clusters found.
	Clusters int
}

// Cluster runs HDBSCAN over points using Euclidean distance.
func Cluster(ctx context.Context, points [][]float64, p Params) (Result, error) {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if p.MinClusterSize < 2 {
		return Result{}, errors.New("hdbscan: min cluster size must be at least 2")
	}
	if n < p.MinClusterSize {
		return Result{Labels: labels}, nil
	}
	for i := 1; i < n; i++ {
		if len(points[i]) != len(points[0]) {
			return Result{}, errors.New("hdbscan: points have mixed dimensions")
		}
	}

	minSamples := p.MinSamples
	if minSamples <= 0 {
		minSamples = p.MinClusterSize
	}
	minSamples = min(minSamples, n)

	core, err := coreDistances(ctx, points, minSamples)
	if err != nil {
		return Result{}, err
	}
	edges, err := spanningTree(ctx, points, core)
	if err != nil {
		return Result{}, err
	}
	tree := linkage(n, edges)
	condensed := condense(tree, n, p.MinClusterSize)
	selected := selectClusters(condensed, n, p)

	return label(condensed, n, selected, labels), nil
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// coreDistances returns the distance from each point to its k-th nearest
// neighbour, counting the point itself as the first.
func coreDistances(ctx context.Context, points [][]float64, k int) ([]float64, error) {
	n := len(points)
	core := make([]float64, n)
	row := make([]float64, n)
	for i := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range points {
			row[j] = distance(points[i], points[j])
		}
		core[i] = kthSmallest(row, k-1)
	}
	return core, nil
}

// kthSmallest returns the k-th (0-based) smallest value, reordering vals.
func kthSmallest(vals []float64, k int) float64 {
	lo, hi := 0, len(vals)-1
	for lo < hi {
		pivot := vals[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for vals[i] < pivot {
				i++
			}
			for vals[j] > pivot {
				j--
			}
			if i <= j {
				vals[i], vals[j] = vals[j], vals[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return vals[k]
		}
	}
	return vals[k]
}

type edge struct {
	a, b   int
	weight float64
}

// spanningTree runs Prim's algorithm over the complete mutual
// reachability graph.
func spanningTree(ctx context.Context, points [][]float64, core []float64) ([]edge, error) {
	n := len(points)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]edge, 0, n-1)
	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			mr := max(core[current], core[j], distance(points[current], points[j]))
			if mr < best[j] {
				best[j] = mr
				from[j] = current
			}
			if next < 0 || best[j] < best[next] {
				next = j
			}
		}
		inTree[next] = true
		edges = append(edges, edge{a: from[next], b: next, weight: best[next]})
		current = next
	}
	return edges, nil
}

// merge is one single-linkage step. Nodes below n are points; merge i
// creates node n+i.
type merge struct {
	left, right int
	distance    float64
	size        int
}

func linkage(n int, edges []edge) []merge {
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })

	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
		if i < n {
			size[i] = 1
		}
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	merges := make([]merge, 0, n-1)
	next := n
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		if ra == rb {
			continue
		}
		parent[ra] = next
		parent[rb] = next
		size[next] = size[ra] + size[rb]
		merges = append(merges, merge{left: ra, right: rb, distance: e.weight, size: size[next]})
		next++
	}
	return merges
}

// condensedRow records a child leaving parent cluster at lambda.
// Child is a point index (< n) or a cluster label (>= n).
type condensedRow struct {
	parent, child int
	lambda        float64
	size          int
}

func condense(merges []merge, n, minClusterSize int) []condensedRow {
	root := n + len(merges) - 1
	nodeSize := func(node int) int {
		if node < n {
			return 1
		}
		return merges[node-n].size
	}
	leaves := func(node int) []int {
		var out []int
		stack := []int{node}
		for len(stack) > 0 {
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if x < n {
				out = append(out, x)
				continue
			}
			m := merges[x-n]
			stack = append(stack, m.left, m.right)
		}
		return out
	}

	relabel := map[int]int{root: n}
	nextLabel := n + 1
	var rows []condensedRow

	queue := []int{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node < n {
			continue
		}
		m := merges[node-n]
		lambda := 1 / math.Max(m.distance, minDistance)
		parent := relabel[node]
		leftSize, rightSize := nodeSize(m.left), nodeSize(m.right)

		switch {
		case leftSize >= minClusterSize && rightSize >= minClusterSize:
			for _, child := range []int{m.left, m.right} {
				relabel[child] = nextLabel
				rows = append(rows, condensedRow{parent: parent, child: nextLabel, lambda: lambda, size: nodeSize(child)})
				nextLabel++
				queue = append(queue, child)
			}
		case leftSize < minClusterSize && rightSize < minClusterSize:
			for _, child := range []int{m.left, m.right} {
				for _, pt := range leaves(child) {
					rows = append(rows, condensedRow{parent: parent, child: pt, lambda: lambda, size: 1})
				}
			}
		default:
			big, small := m.left, m.right
			if leftSize < minClusterSize {
				big, small = m.right, m.left
			}
			relabel[big] = parent
			queue = append(queue, big)
			for _, pt := range leaves(small) {
				rows = append(rows, condensedRow{parent: parent, child: pt, lambda: lambda, size: 1})
			}
		}
	}
	return rows
}

// selectClusters returns the set of chosen cluster labels.
func selectClusters(rows []condensedRow, n int, p Params) map[int]bool {
	birth := map[int]float64{n: 0}
	children := map[int][]int{}
	maxLabel := n
	for _, r := range rows {
		if r.child >= n {
			birth[r.child] = r.lambda
			children[r.parent] = append(children[r.parent], r.child)
			maxLabel = max(maxLabel, r.child)
		}
	}

	stability := make(map[int]float64, maxLabel-n+1)
	for c := n; c <= maxLabel; c++ {
		stability[c] = 0
	}
	for _, r := range rows {
		stability[r.parent] += (r.lambda - birth[r.parent]) * float64(r.size)
	}

	// The root is selectable only when explicitly allowed.
	lowest := n + 1
	if p.AllowSingleCluster {
		lowest = n
	}

	selected := map[int]bool{}
	if p.Selection == Leaf {
		for c := maxLabel; c >= lowest; c-- {
			if len(children[c]) == 0 {
				selected[c] = true
			}
		}
		if len(selected) == 0 && p.AllowSingleCluster {
			selected[n] = true
		}
		return selected
	}

	var unselect func(int)
	unselect = func(c int) {
		for _, child := range children[c] {
			delete(selected, child)
			unselect(child)
		}
	}

	// Children always carry larger labels than parents, so descending
	// order visits every subtree before its root.
	for c := maxLabel; c >= lowest; c-- {
		var sub float64
		for _, child := range children[c] {
			sub += stability[child]
		}
		if len(children[c]) > 0 && sub > stability[c] {
			stability[c] = sub
			continue
		}
		selected[c] = true
		unselect(c)
	}
	return selected
}

func label(rows []condensedRow, n int, selected map[int]bool, labels []int) Result {
	parentOf := map[int]int{}
	for _, r := range rows {
		parentOf[r.child] = r.parent
	}

	clusterOf := func(pt int) int {
		c, ok := parentOf[pt]
		for ok {
			if selected[c] {
				return c
			}
			c, ok = parentOf[c]
		}
		return Noise
	}

	flat := map[int]int{}
	for pt := 0; pt < n; pt++ {
		c := clusterOf(pt)
		if c == Noise {
			continue
		}
		id, ok := flat[c]
		if !ok {
			id = len(flat)
			flat[c] = id
		}
		labels[pt] = id
	}
	return Result{Labels: labels, Clusters: len(flat)}
}
