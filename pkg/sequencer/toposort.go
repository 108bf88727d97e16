package sequencer

// Edge means From can only exist after To exists
type Edge struct {
	From string
	To   string
}

// graph is an adjacency list keyed by node name
type graph struct {
	nodes []string
	index map[string]int
	out   map[string][]string
}

func newGraph(nodes []string, edges []Edge) *graph {
	g := &graph{
		nodes: nodes,
		index: make(map[string]int, len(nodes)),
		out:   make(map[string][]string, len(nodes)),
	}
	for i, node := range nodes {
		if _, exists := g.index[node]; !exists {
			g.index[node] = i
		}
	}
	for _, edge := range edges {
		g.out[edge.From] = append(g.out[edge.From], edge.To)
	}
	return g
}

// uniqueNodes lists endpoints in first-seen order, From before To per edge
func uniqueNodes(edges []Edge) []string {
	seen := make(map[string]struct{}, len(edges)*2)
	nodes := make([]string, 0, len(edges)*2)
	for _, edge := range edges {
		for _, node := range [2]string{edge.From, edge.To} {
			if _, ok := seen[node]; ok {
				continue
			}
			seen[node] = struct{}{}
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Toposort orders the nodes of edges so that every edge points from an
// earlier node to a later one: dependents come before their dependencies.
//
// Ties are broken deterministically: DFS roots are taken in reverse
// discovery order, outgoing edges are followed last-declared first, and
// each node is placed at the next free slot from the end once all of its
// dependencies are placed.
func Toposort(edges []Edge) ([]string, error) {
	return newGraph(uniqueNodes(edges), edges).sort()
}

type frame struct {
	node int
	next int // outgoing edges left to follow, consumed from the end
}

func (g *graph) sort() ([]string, error) {
	n := len(g.nodes)
	sorted := make([]string, n)
	cursor := n
	visited := make([]bool, n)
	onPath := make([]bool, n)

	for root := n - 1; root >= 0; root-- {
		if visited[root] {
			continue
		}
		visited[root] = true
		onPath[root] = true
		stack := []frame{{node: root, next: len(g.out[g.nodes[root]])}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			name := g.nodes[top.node]

			if top.next == 0 {
				onPath[top.node] = false
				cursor--
				sorted[cursor] = name
				stack = stack[:len(stack)-1]
				continue
			}

			top.next--
			child := g.out[name][top.next]

			idx, known := g.index[child]
			if !known {
				return nil, &UnknownNodeError{Node: child}
			}
			if onPath[idx] {
				return nil, &CyclicDependencyError{Node: child, Path: g.cyclePath(stack, idx)}
			}
			if visited[idx] {
				continue
			}

			visited[idx] = true
			onPath[idx] = true
			stack = append(stack, frame{node: idx, next: len(g.out[child])})
		}
	}

	return sorted, nil
}

// cyclePath returns the path from the first occurrence of idx on the stack back to idx
func (g *graph) cyclePath(stack []frame, idx int) []string {
	var path []string
	for i := range stack {
		if stack[i].node == idx || len(path) > 0 {
			path = append(path, g.nodes[stack[i].node])
		}
	}
	return append(path, g.nodes[idx])
}
