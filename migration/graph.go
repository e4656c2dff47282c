package migration

import (
	"container/heap"
	"sort"
)

// Graph is the dependency graph over a set of units. It is immutable once
// built and safe for concurrent reads.
type Graph struct {
	units map[Key]Unit
	deps  map[Key][]Key
	users map[Key][]Key
	order []Key
}

// NewGraph indexes units, resolves their dependencies and computes the
// deterministic topological order. It fails on duplicate keys, dependencies
// that name no unit, and cycles.
func NewGraph(units []Unit) (*Graph, error) {
	g := &Graph{
		units: make(map[Key]Unit, len(units)),
		deps:  make(map[Key][]Key, len(units)),
		users: make(map[Key][]Key, len(units)),
	}
	for _, u := range units {
		k := u.Key()
		if _, dup := g.units[k]; dup {
			return nil, &DuplicateKeyError{Key: k}
		}
		g.units[k] = u
	}

	for _, k := range g.sortedKeys() {
		deps, err := g.units[k].ResolveDepends(k.App)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if _, ok := g.units[d]; !ok {
				ref := k
				return nil, &UnknownKeyError{Key: d, Referrer: &ref}
			}
			g.users[d] = append(g.users[d], k)
		}
		g.deps[k] = deps
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

func (g *Graph) sortedKeys() []Key {
	keys := make([]Key, 0, len(g.units))
	for k := range g.units {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// topoSort is Kahn's algorithm with the ready set kept in (ts, name, app)
// order, so the result is a total order.
func (g *Graph) topoSort() ([]Key, error) {
	indegree := make(map[Key]int, len(g.units))
	ready := &keyHeap{}
	for k := range g.units {
		indegree[k] = len(g.deps[k])
		if indegree[k] == 0 {
			heap.Push(ready, k)
		}
	}

	order := make([]Key, 0, len(g.units))
	for ready.Len() > 0 {
		k := heap.Pop(ready).(Key)
		order = append(order, k)
		for _, user := range g.users[k] {
			indegree[user]--
			if indegree[user] == 0 {
				heap.Push(ready, user)
			}
		}
	}
	if len(order) < len(g.units) {
		return nil, &CyclicDependencyError{Cycle: g.findCycle(indegree)}
	}
	return order, nil
}

// findCycle walks dependencies among the nodes Kahn's algorithm could not
// place. Every such node has an unplaced dependency, so the walk must revisit
// a node.
func (g *Graph) findCycle(indegree map[Key]int) []Key {
	var start Key
	first := true
	for _, k := range g.sortedKeys() {
		if indegree[k] > 0 {
			start, first = k, false
			break
		}
	}
	if first {
		return nil
	}

	pos := map[Key]int{}
	var path []Key
	for k := start; ; {
		if i, seen := pos[k]; seen {
			cycle := append([]Key(nil), path[i:]...)
			return append(cycle, k)
		}
		pos[k] = len(path)
		path = append(path, k)
		for _, d := range g.deps[k] {
			if indegree[d] > 0 {
				k = d
				break
			}
		}
	}
}

// Len returns the number of units.
func (g *Graph) Len() int { return len(g.units) }

// Unit returns the unit with key k.
func (g *Graph) Unit(k Key) (Unit, bool) {
	u, ok := g.units[k]
	return u, ok
}

// Order returns every key in dependency order.
func (g *Graph) Order() []Key {
	return append([]Key(nil), g.order...)
}

// Units returns every unit in dependency order.
func (g *Graph) Units() []Unit {
	out := make([]Unit, len(g.order))
	for i, k := range g.order {
		out[i] = g.units[k]
	}
	return out
}

// Dependencies returns the direct dependencies of k.
func (g *Graph) Dependencies(k Key) []Key {
	return append([]Key(nil), g.deps[k]...)
}

// Ancestors returns every unit k depends on, transitively. k is not included.
func (g *Graph) Ancestors(k Key) map[Key]bool {
	return g.walk(k, g.deps)
}

// Descendants returns every unit that depends on k, transitively.
func (g *Graph) Descendants(k Key) map[Key]bool {
	return g.walk(k, g.users)
}

func (g *Graph) walk(from Key, edges map[Key][]Key) map[Key]bool {
	seen := map[Key]bool{}
	stack := append([]Key(nil), edges[from]...)
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[k] {
			continue
		}
		seen[k] = true
		stack = append(stack, edges[k]...)
	}
	return seen
}

// Leaves returns the keys no other unit depends on, in dependency order.
func (g *Graph) Leaves() []Key {
	var out []Key
	for _, k := range g.order {
		if len(g.users[k]) == 0 {
			out = append(out, k)
		}
	}
	return out
}

type keyHeap []Key

func (h keyHeap) Len() int           { return len(h) }
func (h keyHeap) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h keyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *keyHeap) Push(x any)        { *h = append(*h, x.(Key)) }
func (h *keyHeap) Pop() any {
	old := *h
	k := old[len(old)-1]
	*h = old[:len(old)-1]
	return k
}
