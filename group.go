package gtsl

import (
	"math"
	"slices"

	"github.com/soypat/geometry/ms2"
)

// Group layout constants.
const (
	groupCollapsedWidth = 180
	groupRowHeight      = 18
	groupHeaderHeight   = 28
	groupHeaderExpanded = 52
	groupPadLeft        = 10
	groupPadRight       = 2
	groupPadBottom      = 5
	groupMinWidth       = 240
	groupMinHeight      = 100
	groupEmptyWidth     = 320
	groupEmptyHeight    = 300
	defaultNodeWidth    = 120
	defaultNodeHeight   = 64
	defaultSourceHandle = "out"
	defaultTargetHandle = "in"
	proxyOutPrefix      = "out-"
	proxyInPrefix       = "in-"
)

// Collapse hides the children of a group behind proxy handles on the group
// node. Edges crossing the group boundary are rewritten in place to the
// group's proxy handles, keeping their ids and order. Interior handles with
// no edge at all are exposed as proxies too.
//
// Collapse returns g unchanged if groupID is not an expanded group with
// children, or if any child is itself a group.
func Collapse(g Graph, groupID string) Graph {
	gi := g.Index(groupID)
	if gi < 0 || g.Nodes[gi].Kind != KindGroup || g.Nodes[gi].Data.Collapsed {
		return g
	}
	children, ok := groupChildren(g, groupID)
	if !ok {
		return g
	}
	c := g.Clone()
	var outs, ins []ProxyHandle
	// addProxy returns the index of the proxy standing in for handle of n.
	addProxy := func(list *[]ProxyHandle, prefix string, n Node, handle string) int {
		id := prefix + n.ID + "-" + handle
		for i := range *list {
			if (*list)[i].ID == id {
				return i
			}
		}
		*list = append(*list, ProxyHandle{
			ID:     id,
			Label:  handleLabel(n, handle),
			Node:   n.ID,
			Handle: handle,
			Type:   HandleType(n, handle),
		})
		return len(*list) - 1
	}
	// rewire points an edge endpoint at the proxy and remembers bare handles.
	rewire := func(list []ProxyHandle, i int, e *Edge, handle *string) {
		if *handle == "" {
			list[i].BareEdges = append(list[i].BareEdges, e.ID)
		}
		*handle = list[i].ID
	}
	for i := range c.Edges {
		e := &c.Edges[i]
		srcIn, tgtIn := children[e.Source], children[e.Target]
		switch {
		case srcIn && !tgtIn:
			n, _ := c.Node(e.Source)
			pi := addProxy(&outs, proxyOutPrefix, n, orDefault(e.SourceHandle, defaultSourceHandle))
			rewire(outs, pi, e, &e.SourceHandle)
			e.Source = groupID
		case !srcIn && tgtIn:
			n, _ := c.Node(e.Target)
			pi := addProxy(&ins, proxyInPrefix, n, orDefault(e.TargetHandle, defaultTargetHandle))
			rewire(ins, pi, e, &e.TargetHandle)
			e.Target = groupID
		}
	}
	// Expose dangling interior handles, judged against the original edges.
	for _, n := range c.Nodes {
		if !children[n.ID] {
			continue
		}
		outputs := n.Outputs()
		for _, o := range outputs {
			if !hasEdge(g.Edges, n.ID, o.ID, len(outputs) == 1, true) {
				addProxy(&outs, proxyOutPrefix, n, o.ID)
			}
		}
		inputs := n.Inputs()
		for _, in := range inputs {
			if !hasEdge(g.Edges, n.ID, in.ID, len(inputs) == 1, false) {
				addProxy(&ins, proxyInPrefix, n, in.ID)
			}
		}
	}

	grp := &c.Nodes[gi]
	grp.Data.Collapsed = true
	grp.Data.InHandles = ins
	grp.Data.OutHandles = outs
	if grp.Layout.ExpandedWidth == 0 {
		grp.Layout.ExpandedWidth = grp.Layout.Width
	}
	if grp.Layout.ExpandedHeight == 0 {
		grp.Layout.ExpandedHeight = grp.Layout.Height
	}
	rows := max(1, len(ins)+len(outs))
	grp.Layout.Width = groupCollapsedWidth
	grp.Layout.Height = float32(groupHeaderHeight + rows*groupRowHeight)
	grp.Layout.Hidden = false
	for i := range c.Nodes {
		if children[c.Nodes[i].ID] {
			c.Nodes[i].Layout.Hidden = true
		}
	}
	return c
}

// Expand reverses [Collapse]: proxy edges are rewritten back to the interior
// endpoints, children are shown and the group is resized to fit them.
// Expand returns g unchanged if groupID is not a collapsed group or if any
// child is itself a group.
func Expand(g Graph, groupID string) Graph {
	gi := g.Index(groupID)
	if gi < 0 || g.Nodes[gi].Kind != KindGroup || !g.Nodes[gi].Data.Collapsed {
		return g
	}
	children, ok := groupChildren(g, groupID)
	if !ok && len(children) > 0 {
		return g
	}
	c := g.Clone()
	grp := &c.Nodes[gi]
	for i := range c.Edges {
		e := &c.Edges[i]
		if e.Source == groupID {
			if h, ok := findProxy(grp.Data.OutHandles, e.SourceHandle); ok {
				e.Source, e.SourceHandle = h.Node, h.edgeHandle(e.ID)
			}
		}
		if e.Target == groupID {
			if h, ok := findProxy(grp.Data.InHandles, e.TargetHandle); ok {
				e.Target, e.TargetHandle = h.Node, h.edgeHandle(e.ID)
			}
		}
	}
	size, minX := expandedSize(c, children)
	grp.Data.Collapsed = false
	grp.Data.InHandles = nil
	grp.Data.OutHandles = nil
	grp.Layout.Width, grp.Layout.Height = size.X, size.Y
	grp.Layout.ZIndex = 0
	shiftX := groupPadLeft - minX
	for i := range c.Nodes {
		n := &c.Nodes[i]
		if !children[n.ID] {
			continue
		}
		n.Layout.Hidden = false
		n.Layout.ZIndex = 1
		n.Layout.Position = ms2.Vec{
			X: n.Layout.Position.X + shiftX,
			Y: max(n.Layout.Position.Y, groupHeaderExpanded),
		}
	}
	return c
}

// groupChildren returns the set of direct children of a group. ok is false
// if the group is empty or contains another group.
func groupChildren(g Graph, groupID string) (children map[string]bool, ok bool) {
	children = make(map[string]bool)
	ok = true
	for _, n := range g.Nodes {
		if n.ParentID != groupID {
			continue
		}
		children[n.ID] = true
		if n.Kind == KindGroup {
			ok = false
		}
	}
	return children, ok && len(children) > 0
}

// expandedSize computes the group size from its children's bounds and
// returns the leftmost child x.
func expandedSize(g Graph, children map[string]bool) (size ms2.Vec, minX float32) {
	if len(children) == 0 {
		return ms2.Vec{X: groupEmptyWidth, Y: groupEmptyHeight}, 0
	}
	minX = math.MaxFloat32
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, n := range g.Nodes {
		if !children[n.ID] {
			continue
		}
		w, h := n.Layout.Width, n.Layout.Height
		if w == 0 {
			w = defaultNodeWidth
		}
		if h == 0 {
			h = defaultNodeHeight
		}
		p := n.Layout.Position
		minX = min(minX, p.X)
		maxX = max(maxX, p.X+w)
		maxY = max(maxY, p.Y+h)
	}
	return ms2.Vec{
		X: max(groupMinWidth, groupPadLeft+(maxX-minX)+groupPadRight),
		Y: max(groupMinHeight, maxY+groupPadBottom),
	}, minX
}

// hasEdge reports whether any edge leaves (out=true) or enters node on
// handle. Nodes with a single port on that side match any edge.
func hasEdge(edges []Edge, node, handle string, single, out bool) bool {
	for _, e := range edges {
		if out && e.Source == node {
			if single || orDefault(e.SourceHandle, defaultSourceHandle) == handle {
				return true
			}
		} else if !out && e.Target == node {
			if single || orDefault(e.TargetHandle, defaultTargetHandle) == handle {
				return true
			}
		}
	}
	return false
}

// edgeHandle returns the interior handle an edge had before collapsing.
func (h ProxyHandle) edgeHandle(edgeID string) string {
	if slices.Contains(h.BareEdges, edgeID) {
		return ""
	}
	return h.Handle
}

func handleLabel(n Node, handle string) string {
	label := n.Data.Label
	if label == "" {
		label = n.TypeName()
	}
	return label + "." + handle
}

func orDefault(s, dflt string) string {
	if s == "" {
		return dflt
	}
	return s
}
