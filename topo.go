package gtsl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is wrapped by [CycleError].
var ErrCycleDetected = errors.New("cycle detected")

// CycleError lists the nodes that could not be ordered because they lie on
// or downstream of a dependency cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %d unordered nodes [%s]", ErrCycleDetected, len(e.Nodes), strings.Join(e.Nodes, " "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// TopoSort returns node ids such that for every edge source precedes target.
// Ties between ready nodes preserve node order. Nodes that never become
// ready due to cycles are appended in node order. Edges referencing
// unknown nodes are ignored.
func TopoSort(nodes []Node, edges []Edge) []string {
	order, _ := topoOrder(nodes, edges)
	ids := make([]string, len(order))
	for i, idx := range order {
		ids[i] = nodes[idx].ID
	}
	return ids
}

// TopoSortStrict is like [TopoSort] but returns a *[CycleError] when the
// graph is cyclic instead of appending the unordered nodes.
func TopoSortStrict(nodes []Node, edges []Edge) ([]string, error) {
	order, nsorted := topoOrder(nodes, edges)
	if nsorted < len(order) {
		cerr := &CycleError{}
		for _, idx := range order[nsorted:] {
			cerr.Nodes = append(cerr.Nodes, nodes[idx].ID)
		}
		return nil, cerr
	}
	ids := make([]string, len(order))
	for i, idx := range order {
		ids[i] = nodes[idx].ID
	}
	return ids, nil
}

// topoOrder returns a permutation of node indices and the number of leading
// entries that were ordered by Kahn's algorithm.
func topoOrder(nodes []Node, edges []Edge) (order []int, nsorted int) {
	idToIndex := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := idToIndex[n.ID]; !dup {
			idToIndex[n.ID] = i
		}
	}
	inDegree := make([]int, len(nodes))
	outEdges := make([][]int, len(nodes))
	for _, e := range edges {
		si, ok1 := idToIndex[e.Source]
		ti, ok2 := idToIndex[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		outEdges[si] = append(outEdges[si], ti)
		inDegree[ti]++
	}
	queue := make([]int, 0, len(nodes))
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	order = make([]int, 0, len(nodes))
	visited := make([]bool, len(nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		visited[i] = true
		for _, j := range outEdges[i] {
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	nsorted = len(order)
	for i := range nodes {
		if !visited[i] {
			order = append(order, i)
		}
	}
	return order, nsorted
}
