package decomp

import "slices"

// BlockGraph is an undirected weighted graph over block ids. An edge between
// two blocks counts the stairlinking candidates they share.
type BlockGraph struct {
	n   int
	adj []map[int]int
}

// NewBlockGraph returns a graph with n isolated nodes.
func NewBlockGraph(n int) *BlockGraph {
	g := &BlockGraph{n: n, adj: make([]map[int]int, n)}
	for i := range g.adj {
		g.adj[i] = make(map[int]int)
	}
	return g
}

// AddEdge adds one unit of weight between a and b. Self loops are ignored.
func (g *BlockGraph) AddEdge(a, b int) {
	if a == b {
		return
	}
	g.adj[a][b]++
	g.adj[b][a]++
}


// Degree returns the number of distinct neighbours of b.
func (g *BlockGraph) Degree(b int) int { return len(g.adj[b]) }

// Weight returns the edge weight between a and b, 0 if not adjacent.
func (g *BlockGraph) Weight(a, b int) int { return g.adj[a][b] }

// Neighbors returns the neighbours of b in ascending order.
func (g *BlockGraph) Neighbors(b int) []int {
	out := make([]int, 0, len(g.adj[b]))
	for o := range g.adj[b] {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}

// IsPathForest reports whether the graph is a disjoint union of simple paths
// and isolated nodes: every degree is at most two and walking from every
// degree-one node covers all non-isolated nodes.
func (g *BlockGraph) IsPathForest() bool {
	for b := range g.n {
		if g.Degree(b) > 2 {
			return false
		}
	}
	visited := make([]bool, g.n)
	for b := range g.n {
		if g.Degree(b) == 1 && !visited[b] {
			g.walk(b, visited)
		}
	}
	for b := range g.n {
		if g.Degree(b) > 0 && !visited[b] {
			return false // cycle
		}
	}
	return true
}

// walk follows a path from an endpoint and returns the nodes in order.
func (g *BlockGraph) walk(start int, visited []bool) []int {
	path := []int{start}
	visited[start] = true
	prev, cur := -1, start
	for {
		next := -1
		for _, o := range g.Neighbors(cur) {
			if o != prev && !visited[o] {
				next = o
				break
			}
		}
		if next < 0 {
			return path
		}
		visited[next] = true
		path = append(path, next)
		prev, cur = cur, next
	}
}

// Paths returns the node orderings of a path forest: each path from its
// lower-id endpoint, then isolated nodes, each group ordered by first node.
// The result is only meaningful when IsPathForest holds.
func (g *BlockGraph) Paths() [][]int {
	visited := make([]bool, g.n)
	var paths [][]int
	for b := range g.n {
		if visited[b] {
			continue
		}
		switch g.Degree(b) {
		case 0:
			visited[b] = true
			paths = append(paths, []int{b})
		case 1:
			paths = append(paths, g.walk(b, visited))
		}
	}
	return paths
}

// GreedyPaths grows paths over an arbitrary graph. A path starts at the
// lowest-id unplaced node of minimum degree and repeatedly extends to the
// unplaced neighbour of its tail with the heaviest edge; ties keep the first
// found in ascending id order.
func (g *BlockGraph) GreedyPaths() [][]int {
	placed := make([]bool, g.n)
	var paths [][]int
	for left := g.n; left > 0; {
		start, best := -1, -1
		for b := range g.n {
			if placed[b] {
				continue
			}
			d := g.unplacedDegree(b, placed)
			if start < 0 || d < best {
				start, best = b, d
			}
		}
		path := []int{start}
		placed[start] = true
		left--
		for tail := start; ; {
			next, w := -1, 0
			for _, o := range g.Neighbors(tail) {
				if !placed[o] && g.adj[tail][o] > w {
					next, w = o, g.adj[tail][o]
				}
			}
			if next < 0 {
				break
			}
			placed[next] = true
			left--
			path = append(path, next)
			tail = next
		}
		paths = append(paths, path)
	}
	return paths
}

func (g *BlockGraph) unplacedDegree(b int, placed []bool) int {
	d := 0
	for o := range g.adj[b] {
		if !placed[o] {
			d++
		}
	}
	return d
}
