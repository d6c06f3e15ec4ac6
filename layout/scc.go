package layout

import "sort"

// FindSCCs computes the strongly connected components of the directed graph
// spanned by arcs, using Tarjan's algorithm with an explicit stack so deep
// nets cannot overflow the goroutine stack. Components are returned with
// members sorted by id; IsCycle is true for multi-node components and for
// single nodes carrying a self-loop.
func FindSCCs(nodes []string, arcs []Edge) []SCC {
	adj := make(map[string][]string, len(nodes))
	selfLoop := make(map[string]bool)
	for _, e := range arcs {
		adj[e.Source] = append(adj[e.Source], e.Target)
		if e.Source == e.Target {
			selfLoop[e.Source] = true
		}
	}

	ids := make([]string, len(nodes))
	copy(ids, nodes)
	sort.Strings(ids)
	for _, edges := range adj {
		sort.Strings(edges)
	}

	index := make(map[string]int, len(ids))
	lowlink := make(map[string]int, len(ids))
	onStack := make(map[string]bool, len(ids))
	var stack []string
	var sccs []SCC
	next := 0

	// frame tracks one node's DFS progress: which successor to visit next.
	type frame struct {
		node string
		succ int
	}

	for _, root := range ids {
		if _, seen := index[root]; seen {
			continue
		}
		var call []frame
		call = append(call, frame{node: root})
		index[root] = next
		lowlink[root] = next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(call) > 0 {
			f := &call[len(call)-1]
			succs := adj[f.node]
			if f.succ < len(succs) {
				w := succs[f.succ]
				f.succ++
				if _, seen := index[w]; !seen {
					index[w] = next
					lowlink[w] = next
					next++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{node: w})
				} else if onStack[w] {
					if index[w] < lowlink[f.node] {
						lowlink[f.node] = index[w]
					}
				}
				continue
			}

			// Node finished: pop its component if it is a root.
			v := f.node
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var members []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					members = append(members, w)
					if w == v {
						break
					}
				}
				sort.Strings(members)
				sccs = append(sccs, SCC{
					Members: members,
					IsCycle: len(members) > 1 || selfLoop[v],
				})
			}
		}
	}
	return sccs
}

// CycleSCCs filters sccs down to genuine cycles, the only components the
// physics engine treats as gravitational centers.
func CycleSCCs(sccs []SCC) []SCC {
	var out []SCC
	for _, s := range sccs {
		if s.IsCycle {
			out = append(out, s)
		}
	}
	return out
}
