package gtsl

import "strings"

// Index is a read-only lookup structure over a [Graph] shared by the evaluators.
// Edges that pass through collapsed group proxy handles are resolved to
// the interior endpoints so that groups are transparent to evaluation.
type Index struct {
	g        Graph
	byID     map[string]int
	resolved []Edge
	// incoming maps a target node id to indices into resolved, in edge order.
	incoming map[string][]int
}

// maxGroupHops bounds proxy resolution in malformed graphs where group
// mappings point at each other.
const maxGroupHops = 8

// NewIndex builds an [Index] over g.
func NewIndex(g Graph) *Index {
	ix := &Index{
		g:        g,
		byID:     make(map[string]int, len(g.Nodes)),
		incoming: make(map[string][]int),
	}
	for i, n := range g.Nodes {
		if _, dup := ix.byID[n.ID]; !dup {
			ix.byID[n.ID] = i
		}
	}
	ix.resolved = make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		e.Source, e.SourceHandle = ix.resolveOut(e.Source, e.SourceHandle)
		e.Target, e.TargetHandle = ix.resolveIn(e.Target, e.TargetHandle)
		ix.incoming[e.Target] = append(ix.incoming[e.Target], len(ix.resolved))
		ix.resolved = append(ix.resolved, e)
	}
	return ix
}

// Graph returns the indexed graph.
func (ix *Index) Graph() Graph { return ix.g }

// Node returns the node with the given id.
func (ix *Index) Node(id string) (Node, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return Node{}, false
	}
	return ix.g.Nodes[i], true
}

// Edges returns all edges with group proxies resolved, in original edge order.
func (ix *Index) Edges() []Edge { return ix.resolved }

// Incoming returns the resolved edges targeting the node, in edge order.
func (ix *Index) Incoming(nodeID string) []Edge {
	idxs := ix.incoming[nodeID]
	edges := make([]Edge, len(idxs))
	for i, j := range idxs {
		edges[i] = ix.resolved[j]
	}
	return edges
}

// Input returns the edge writing to the input handle of a node. Handles are matched
// exactly or in upper case, and for custom functions case-insensitively.
func (ix *Index) Input(nodeID, handle string) (Edge, bool) {
	idxs := ix.incoming[nodeID]
	for _, j := range idxs {
		if handleMatch(ix.resolved[j].TargetHandle, handle) {
			return ix.resolved[j], true
		}
	}
	if n, ok := ix.Node(nodeID); ok && n.Kind == KindCustomFn {
		for _, j := range idxs {
			if strings.EqualFold(ix.resolved[j].TargetHandle, handle) {
				return ix.resolved[j], true
			}
		}
	}
	return Edge{}, false
}

// InputNode returns the node feeding the input handle of a node.
func (ix *Index) InputNode(nodeID, handle string) (src Node, srcHandle string, ok bool) {
	e, ok := ix.Input(nodeID, handle)
	if !ok {
		return Node{}, "", false
	}
	src, ok = ix.Node(e.Source)
	return src, e.SourceHandle, ok
}

// OutputNode returns the first node of kind output, or the first material
// family node when there is no legacy output node.
func (ix *Index) OutputNode() (Node, bool) {
	for _, n := range ix.g.Nodes {
		if n.Kind == KindOutput {
			return n, true
		}
	}
	for _, n := range ix.g.Nodes {
		if n.Kind.IsMaterial() {
			return n, true
		}
	}
	return Node{}, false
}

func (ix *Index) resolveOut(nodeID, handle string) (string, string) {
	for hop := 0; hop < maxGroupHops; hop++ {
		n, ok := ix.Node(nodeID)
		if !ok || n.Kind != KindGroup || !n.Data.Collapsed {
			break
		}
		h, ok := findProxy(n.Data.OutHandles, handle)
		if !ok {
			break
		}
		nodeID, handle = h.Node, h.Handle
	}
	return nodeID, handle
}

func (ix *Index) resolveIn(nodeID, handle string) (string, string) {
	for hop := 0; hop < maxGroupHops; hop++ {
		n, ok := ix.Node(nodeID)
		if !ok || n.Kind != KindGroup || !n.Data.Collapsed {
			break
		}
		h, ok := findProxy(n.Data.InHandles, handle)
		if !ok {
			break
		}
		nodeID, handle = h.Node, h.Handle
	}
	return nodeID, handle
}

func findProxy(handles []ProxyHandle, id string) (ProxyHandle, bool) {
	for _, h := range handles {
		if h.ID == id {
			return h, true
		}
	}
	return ProxyHandle{}, false
}
