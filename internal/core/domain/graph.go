// Package domain contains the core domain models of the make engine.
package domain

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// DirectedGraph is a mutable graph over comparable vertices.
// An edge from -> to reads "from depends on to".
// Vertices and edges keep their insertion order so traversals are deterministic.
type DirectedGraph[T comparable] struct {
	vertices []T
	index    map[T]struct{}
	out      map[T][]T
	in       map[T][]T
	edges    map[[2]T]struct{}
}

// NewDirectedGraph creates a new empty DirectedGraph.
func NewDirectedGraph[T comparable]() *DirectedGraph[T] {
	return &DirectedGraph[T]{
		index: make(map[T]struct{}),
		out:   make(map[T][]T),
		in:    make(map[T][]T),
		edges: make(map[[2]T]struct{}),
	}
}

// AddVertex adds v to the graph. It reports whether v was new.
func (g *DirectedGraph[T]) AddVertex(v T) bool {
	if _, ok := g.index[v]; ok {
		return false
	}
	g.index[v] = struct{}{}
	g.vertices = append(g.vertices, v)
	return true
}

// AddEdge adds the edge from -> to, creating both vertices if needed.
// It reports whether the edge was new.
func (g *DirectedGraph[T]) AddEdge(from, to T) bool {
	g.AddVertex(from)
	g.AddVertex(to)
	key := [2]T{from, to}
	if _, ok := g.edges[key]; ok {
		return false
	}
	g.edges[key] = struct{}{}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return true
}

// HasVertex reports whether v is in the graph.
func (g *DirectedGraph[T]) HasVertex(v T) bool {
	_, ok := g.index[v]
	return ok
}

// HasEdge reports whether the edge from -> to exists.
func (g *DirectedGraph[T]) HasEdge(from, to T) bool {
	_, ok := g.edges[[2]T{from, to}]
	return ok
}

// Vertices yields every vertex in insertion order.
func (g *DirectedGraph[T]) Vertices() iter.Seq[T] {
	return slices.Values(g.vertices)
}

// OutNeighbors yields the vertices v depends on.
func (g *DirectedGraph[T]) OutNeighbors(v T) iter.Seq[T] {
	return slices.Values(g.out[v])
}

// InNeighbors yields the vertices that depend on v.
func (g *DirectedGraph[T]) InNeighbors(v T) iter.Seq[T] {
	return slices.Values(g.in[v])
}

// CheckCircular runs a depth-first search from start and returns the first
// cycle found as an ordered path that begins and ends with the same vertex.
// It returns nil when no cycle is reachable from start.
func (g *DirectedGraph[T]) CheckCircular(start T) []T {
	if !g.HasVertex(start) {
		return nil
	}

	var (
		path    []T
		onPath  = make(map[T]bool)
		visited = make(map[T]bool)
		cycle   []T
	)

	var visit func(v T) bool
	visit = func(v T) bool {
		if onPath[v] {
			idx := slices.Index(path, v)
			cycle = append(slices.Clone(path[idx:]), v)
			return true
		}
		if visited[v] {
			return false
		}
		visited[v] = true
		onPath[v] = true
		path = append(path, v)
		for _, child := range g.out[v] {
			if visit(child) {
				return true
			}
		}
		path = path[:len(path)-1]
		onPath[v] = false
		return false
	}

	visit(start)
	return cycle
}

// Ancestors returns every vertex that transitively depends on v, nearest first.
func (g *DirectedGraph[T]) Ancestors(v T) []T {
	return g.reach(v, g.in)
}

// DescendantsRecursively returns every vertex v transitively depends on, nearest first.
func (g *DirectedGraph[T]) DescendantsRecursively(v T) []T {
	return g.reach(v, g.out)
}

func (g *DirectedGraph[T]) reach(v T, adj map[T][]T) []T {
	seen := map[T]bool{v: true}
	queue := []T{v}
	var out []T
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

// PreOrder yields the vertices reachable from start in depth-first pre-order,
// each vertex once.
func (g *DirectedGraph[T]) PreOrder(start T) iter.Seq[T] {
	return func(yield func(T) bool) {
		visited := make(map[T]bool)
		var visit func(v T) bool
		visit = func(v T) bool {
			if visited[v] {
				return true
			}
			visited[v] = true
			if !yield(v) {
				return false
			}
			for _, child := range g.out[v] {
				if !visit(child) {
					return false
				}
			}
			return true
		}
		if g.HasVertex(start) {
			visit(start)
		}
	}
}

// Roots returns the vertices nothing depends on.
func (g *DirectedGraph[T]) Roots() []T {
	var roots []T
	for _, v := range g.vertices {
		if len(g.in[v]) == 0 {
			roots = append(roots, v)
		}
	}
	return roots
}

// FindPathToRoot follows the first dependant of each vertex, starting at v,
// until it reaches a root. The result starts with v. A cycle stops the walk.
func (g *DirectedGraph[T]) FindPathToRoot(v T) []T {
	seen := make(map[T]bool)
	var path []T
	for !seen[v] {
		seen[v] = true
		path = append(path, v)
		parents := g.in[v]
		if len(parents) == 0 {
			break
		}
		v = parents[0]
	}
	return path
}

// String renders every root as a tree. Shared subtrees are repeated under
// each dependant; a vertex already on the current branch is marked circular.
func (g *DirectedGraph[T]) String() string {
	var sb strings.Builder
	for _, root := range g.Roots() {
		g.WriteTree(&sb, root)
	}
	return sb.String()
}

// Tree renders the tree rooted at v.
func (g *DirectedGraph[T]) Tree(v T) string {
	var sb strings.Builder
	g.WriteTree(&sb, v)
	return sb.String()
}

// WriteTree writes the tree rooted at v to sb.
func (g *DirectedGraph[T]) WriteTree(sb *strings.Builder, v T) {
	fmt.Fprintf(sb, "%v\n", v)
	g.writeChildren(sb, v, "", map[T]bool{v: true})
}

func (g *DirectedGraph[T]) writeChildren(sb *strings.Builder, v T, prefix string, branch map[T]bool) {
	children := g.out[v]
	for i, child := range children {
		connector, indent := "├─ ", "│  "
		if i == len(children)-1 {
			connector, indent = "└─ ", "   "
		}
		if branch[child] {
			fmt.Fprintf(sb, "%s%s[Circular(%v)]\n", prefix, connector, child)
			continue
		}
		fmt.Fprintf(sb, "%s%s%v\n", prefix, connector, child)
		branch[child] = true
		g.writeChildren(sb, child, prefix+indent, branch)
		delete(branch, child)
	}
}

// Clone returns an independent copy of the graph.
func (g *DirectedGraph[T]) Clone() *DirectedGraph[T] {
	c := NewDirectedGraph[T]()
	for _, v := range g.vertices {
		c.AddVertex(v)
	}
	for _, v := range g.vertices {
		for _, to := range g.out[v] {
			c.AddEdge(v, to)
		}
	}
	return c
}
