package routingalgorithm

import (
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/util"
)

// Components holds the strongly connected components of a graph and the
// condensation dag between them.
type Components struct {
	scc        []int32
	sizes      []int32
	condensed  [][]int32
	largestSCC int32
}

// KosarajuSCC computes the strongly connected components over the traversable arcs of g.
// both passes are iterative so large road networks do not grow the goroutine stack.
func KosarajuSCC(g Graph) *Components {
	n := g.NumVertices()

	inArcs := make([][]datastructure.Index, n)
	for v := 0; v < n; v++ {
		for _, arc := range g.OutArcs(datastructure.Index(v)) {
			inArcs[arc.Head] = append(inArcs[arc.Head], datastructure.Index(v))
		}
	}

	order := make([]datastructure.Index, 0, n)
	visited := make([]bool, n)

	type frame struct {
		v    datastructure.Index
		next int
	}
	stack := make([]frame, 0)

	for s := 0; s < n; s++ {
		if visited[s] {
			continue
		}
		visited[s] = true
		stack = append(stack, frame{v: datastructure.Index(s)})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			arcs := g.OutArcs(top.v)
			if top.next < len(arcs) {
				head := arcs[top.next].Head
				top.next++
				if !visited[head] {
					visited[head] = true
					stack = append(stack, frame{v: head})
				}
				continue
			}
			order = append(order, top.v)
			stack = stack[:len(stack)-1]
		}
	}

	order = util.ReverseG(order)

	c := &Components{scc: make([]int32, n)}
	for i := range c.scc {
		c.scc[i] = -1
	}

	dfsStack := make([]datastructure.Index, 0)
	for _, root := range order {
		if c.scc[root] != -1 {
			continue
		}
		id := int32(len(c.sizes))
		c.sizes = append(c.sizes, 0)
		c.scc[root] = id
		dfsStack = append(dfsStack[:0], root)
		for len(dfsStack) > 0 {
			v := dfsStack[len(dfsStack)-1]
			dfsStack = dfsStack[:len(dfsStack)-1]
			c.sizes[id]++
			for _, u := range inArcs[v] {
				if c.scc[u] == -1 {
					c.scc[u] = id
					dfsStack = append(dfsStack, u)
				}
			}
		}
		if c.sizes[id] > c.sizes[c.largestSCC] {
			c.largestSCC = id
		}
	}

	c.condensed = make([][]int32, len(c.sizes))
	seen := make(map[[2]int32]struct{})
	for v := 0; v < n; v++ {
		from := c.scc[v]
		for _, arc := range g.OutArcs(datastructure.Index(v)) {
			to := c.scc[arc.Head]
			if from == to {
				continue
			}
			if _, ok := seen[[2]int32{from, to}]; ok {
				continue
			}
			seen[[2]int32{from, to}] = struct{}{}
			c.condensed[from] = append(c.condensed[from], to)
		}
	}

	return c
}

func (c *Components) Count() int {
	return len(c.sizes)
}

// LargestSize returns the vertex count of the biggest component, 0 for an empty graph.
func (c *Components) LargestSize() int {
	if len(c.sizes) == 0 {
		return 0
	}
	return int(c.sizes[c.largestSCC])
}

func (c *Components) Of(v datastructure.Index) int32 {
	return c.scc[v]
}

// Reachable reports whether any directed path leads from `from` to `to`.
func (c *Components) Reachable(from, to datastructure.Index) bool {
	src, dst := c.scc[from], c.scc[to]
	if src == dst {
		return true
	}

	visited := make(map[int32]struct{})
	stack := []int32{src}
	visited[src] = struct{}{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range c.condensed[cur] {
			if next == dst {
				return true
			}
			if _, ok := visited[next]; !ok {
				visited[next] = struct{}{}
				stack = append(stack, next)
			}
		}
	}
	return false
}
