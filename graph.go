package gtsl

import (
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/gtsl/tslfn"
)

// Graph is a snapshot of a shader node graph. Evaluators never mutate a Graph.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Node is one operation instance in a [Graph].
type Node struct {
	ID   string
	Kind Kind
	// RawType preserves the persisted type string of nodes whose kind is
	// KindUnknown so that they survive a round trip.
	RawType string
	// ParentID is the id of the group node containing this node, if any.
	ParentID string
	Data     NodeData
	Layout   Layout
}

// Layout holds UI-only attributes. No evaluator reads Layout.
type Layout struct {
	Position ms2.Vec
	Width    float32
	Height   float32
	Hidden   bool
	ZIndex   int
	// ExpandedWidth and ExpandedHeight remember a group's size before it was collapsed.
	ExpandedWidth  float32
	ExpandedHeight float32
}

// NodeData holds the semantic attributes of a node.
type NodeData struct {
	Label string
	// Literal values.
	Value      float32
	X, Y, Z, W float32
	// Color is a hex color such as "#ff8800".
	Color string
	// Index selects the texture coordinate set of uv accessors.
	Index int

	// Custom function source and signature.
	Code       string
	Inputs     []Port
	InputTypes map[string]Type
	OutputType Type

	// Material parameters used when a slot is unconnected.
	MaterialClass string
	Params        map[string]float32
	Colors        map[string]string
	Side          int
	Transparent   bool

	// Group state.
	Collapsed  bool
	InHandles  []ProxyHandle
	OutHandles []ProxyHandle
}

// ProxyHandle is a handle on a collapsed group standing in for an interior node's handle.
type ProxyHandle struct {
	ID    string
	Label string
	// Node and Handle identify the interior endpoint.
	Node   string
	Handle string
	// Type of the interior handle. Used for display only.
	Type Type
	// BareEdges lists edges that named the interior handle implicitly
	// with an empty handle before collapsing.
	BareEdges []string
}

// Edge connects an output handle to an input handle.
type Edge struct {
	ID           string
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
	Data         EdgeData
}

// EdgeData holds UI attributes of an edge.
type EdgeData struct {
	TypeColor       string
	TargetTypeColor string
}

// TypeName returns the persisted type string of the node.
func (n Node) TypeName() string {
	if n.Kind == KindUnknown && n.RawType != "" {
		return n.RawType
	}
	return n.Kind.String()
}

// Inputs returns the input ports of the node, taking custom function
// signatures and material families into account.
func (n Node) Inputs() []Port {
	switch {
	case n.Kind == KindCustomFn && len(n.Data.Inputs) > 0:
		return n.Data.Inputs
	case n.Kind == KindCustomFn && n.Data.Code != "":
		return customFnPorts(n.Data.Code)
	case n.Kind == KindOutput:
		return MaterialFamily(n).Inputs()
	}
	return n.Kind.Inputs()
}

// Outputs returns the output ports of the node.
func (n Node) Outputs() []Port { return n.Kind.Outputs() }

// InputPort looks up an input port by handle id, exact match first.
func (n Node) InputPort(handle string) (Port, bool) { return findPort(n.Inputs(), handle) }

// CustomFnOutputType returns the declared output type of a custom function,
// or the type inferred from its return expression when undeclared.
func (d NodeData) CustomFnOutputType() Type {
	if d.OutputType != TypeAny {
		return d.OutputType
	}
	t, err := ParseType(tslfn.InferOutputType(d.Code))
	if err != nil {
		return TypeFloat
	}
	return t
}

// ArrayParams reports whether the custom function's parameter list uses bracket syntax.
func (d NodeData) ArrayParams() bool { return tslfn.HasArrayParams(d.Code) }

func customFnPorts(code string) []Port {
	params := tslfn.ParseParams(code)
	ports := make([]Port, len(params))
	for i, p := range params {
		ports[i] = Port{ID: p.ID, Label: p.Label}
	}
	return ports
}

// Index returns the position of the node with the given id, or -1.
func (g Graph) Index(id string) int {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	i := g.Index(id)
	if i < 0 {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Children returns the ids of the nodes whose parent is groupID, in node order.
func (g Graph) Children(groupID string) []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.ParentID == groupID {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Clone returns a deep copy of the graph. Slices and maps inside node data are copied.
func (g Graph) Clone() Graph {
	c := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
	}
	for i, n := range g.Nodes {
		n.Data = n.Data.clone()
		c.Nodes[i] = n
	}
	if g.Nodes == nil {
		c.Nodes = nil
	}
	if g.Edges == nil {
		c.Edges = nil
	}
	return c
}

func (d NodeData) clone() NodeData {
	d.Inputs = cloneSlice(d.Inputs)
	d.InHandles = cloneSlice(d.InHandles)
	d.OutHandles = cloneSlice(d.OutHandles)
	d.InputTypes = cloneMap(d.InputTypes)
	d.Params = cloneMap(d.Params)
	d.Colors = cloneMap(d.Colors)
	return d
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// handleMatch reports whether an edge handle refers to port id. Handles
// match exactly or in upper case.
func handleMatch(edgeHandle, id string) bool {
	return edgeHandle == id || edgeHandle == strings.ToUpper(id)
}
