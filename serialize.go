package gtsl

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/soypat/geometry/ms2"
	"github.com/vmihailenco/msgpack/v5"
)

// FlowGraph is the persisted form of a [Graph] as stored by the node editor.
type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// FlowNode is the persisted form of a [Node].
type FlowNode struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position FlowPosition `json:"position"`
	Data     FlowNodeData `json:"data"`
	ParentID string       `json:"parentId,omitempty"`
	Hidden   bool         `json:"hidden,omitempty"`
	ZIndex   int          `json:"zIndex,omitempty"`
	Style    *FlowStyle   `json:"style,omitempty"`
}

type FlowPosition struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type FlowStyle struct {
	Width  float32 `json:"width,omitempty"`
	Height float32 `json:"height,omitempty"`
}

// FlowNodeData holds every semantic field a node may carry. Types are
// stored by name.
type FlowNodeData struct {
	Label         string             `json:"label,omitempty"`
	Value         float32            `json:"value,omitempty"`
	X             float32            `json:"x,omitempty"`
	Y             float32            `json:"y,omitempty"`
	Z             float32            `json:"z,omitempty"`
	W             float32            `json:"w,omitempty"`
	Color         string             `json:"color,omitempty"`
	Index         int                `json:"index,omitempty"`
	Code          string             `json:"code,omitempty"`
	Inputs        []Port             `json:"inputs,omitempty"`
	InputTypes    map[string]string  `json:"inputTypes,omitempty"`
	OutputType    string             `json:"outputType,omitempty"`
	MaterialClass string             `json:"materialClass,omitempty"`
	Params        map[string]float32 `json:"params,omitempty"`
	Colors        map[string]string  `json:"colors,omitempty"`
	Side          int                `json:"side,omitempty"`
	Transparent   bool               `json:"transparent,omitempty"`

	Collapsed      bool        `json:"collapsed,omitempty"`
	InHandles      []FlowProxy `json:"inHandles,omitempty"`
	OutHandles     []FlowProxy `json:"outHandles,omitempty"`
	ExpandedWidth  float32     `json:"expandedWidth,omitempty"`
	ExpandedHeight float32     `json:"expandedHeight,omitempty"`
}

// FlowProxy is a persisted group boundary handle.
type FlowProxy struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Node   string `json:"node"`
	Handle string `json:"handle"`
	Type   string `json:"type,omitempty"`
	// BareEdges are edge ids restored with an empty handle on expand.
	BareEdges []string `json:"bareEdges,omitempty"`
}

// FlowEdge is the persisted form of an [Edge].
type FlowEdge struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Target       string        `json:"target"`
	SourceHandle string        `json:"sourceHandle"`
	TargetHandle string        `json:"targetHandle"`
	Data         *FlowEdgeData `json:"data,omitempty"`
}

type FlowEdgeData struct {
	TypeColor       string `json:"typeColor,omitempty"`
	TargetTypeColor string `json:"targetTypeColor,omitempty"`
}

// Export converts g to its persisted form.
func Export(g Graph) FlowGraph {
	fg := FlowGraph{
		Nodes: make([]FlowNode, len(g.Nodes)),
		Edges: make([]FlowEdge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		fn := FlowNode{
			ID:       n.ID,
			Type:     n.TypeName(),
			Position: FlowPosition{X: n.Layout.Position.X, Y: n.Layout.Position.Y},
			Data:     exportData(n),
			ParentID: n.ParentID,
			Hidden:   n.Layout.Hidden,
			ZIndex:   n.Layout.ZIndex,
		}
		if n.Layout.Width != 0 || n.Layout.Height != 0 {
			fn.Style = &FlowStyle{Width: n.Layout.Width, Height: n.Layout.Height}
		}
		fg.Nodes[i] = fn
	}
	for i, e := range g.Edges {
		fe := FlowEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		}
		if e.Data != (EdgeData{}) {
			fe.Data = &FlowEdgeData{TypeColor: e.Data.TypeColor, TargetTypeColor: e.Data.TargetTypeColor}
		}
		fg.Edges[i] = fe
	}
	return fg
}

func exportData(n Node) FlowNodeData {
	d := n.Data
	fd := FlowNodeData{
		Label:          d.Label,
		Value:          d.Value,
		X:              d.X,
		Y:              d.Y,
		Z:              d.Z,
		W:              d.W,
		Color:          d.Color,
		Index:          d.Index,
		Code:           d.Code,
		Inputs:         cloneSlice(d.Inputs),
		MaterialClass:  d.MaterialClass,
		Params:         cloneMap(d.Params),
		Colors:         cloneMap(d.Colors),
		Side:           d.Side,
		Transparent:    d.Transparent,
		Collapsed:      d.Collapsed,
		InHandles:      exportProxies(d.InHandles),
		OutHandles:     exportProxies(d.OutHandles),
		ExpandedWidth:  n.Layout.ExpandedWidth,
		ExpandedHeight: n.Layout.ExpandedHeight,
	}
	if d.OutputType != TypeAny {
		fd.OutputType = d.OutputType.String()
	}
	if d.InputTypes != nil {
		fd.InputTypes = make(map[string]string, len(d.InputTypes))
		for k, t := range d.InputTypes {
			fd.InputTypes[k] = t.String()
		}
	}
	return fd
}

func exportProxies(handles []ProxyHandle) []FlowProxy {
	if handles == nil {
		return nil
	}
	fp := make([]FlowProxy, len(handles))
	for i, h := range handles {
		fp[i] = FlowProxy{ID: h.ID, Label: h.Label, Node: h.Node, Handle: h.Handle, BareEdges: h.BareEdges}
		if h.Type != TypeAny {
			fp[i].Type = h.Type.String()
		}
	}
	return fp
}

// Import converts a persisted graph into a [Graph]. Missing node types
// become "default" and decode as KindUnknown. Unknown type strings are
// preserved in [Node.RawType].
func Import(fg FlowGraph) (Graph, error) {
	var g Graph
	if len(fg.Nodes) > 0 {
		g.Nodes = make([]Node, len(fg.Nodes))
	}
	if len(fg.Edges) > 0 {
		g.Edges = make([]Edge, len(fg.Edges))
	}
	for i, fn := range fg.Nodes {
		typ := fn.Type
		if typ == "" {
			typ = "default"
		}
		n := Node{
			ID:       fn.ID,
			ParentID: fn.ParentID,
			Layout: Layout{
				Position:       ms2.Vec{X: fn.Position.X, Y: fn.Position.Y},
				Hidden:         fn.Hidden,
				ZIndex:         fn.ZIndex,
				ExpandedWidth:  fn.Data.ExpandedWidth,
				ExpandedHeight: fn.Data.ExpandedHeight,
			},
		}
		if k, ok := ParseKind(typ); ok {
			n.Kind = k
		} else if typ != KindUnknown.String() {
			n.RawType = typ
		}
		if fn.Style != nil {
			n.Layout.Width, n.Layout.Height = fn.Style.Width, fn.Style.Height
		}
		data, err := importData(fn.Data)
		if err != nil {
			return Graph{}, fmt.Errorf("node %q: %w", fn.ID, err)
		}
		n.Data = data
		g.Nodes[i] = n
	}
	for i, fe := range fg.Edges {
		e := Edge{
			ID:           fe.ID,
			Source:       fe.Source,
			SourceHandle: fe.SourceHandle,
			Target:       fe.Target,
			TargetHandle: fe.TargetHandle,
		}
		if fe.Data != nil {
			e.Data = EdgeData{TypeColor: fe.Data.TypeColor, TargetTypeColor: fe.Data.TargetTypeColor}
		}
		g.Edges[i] = e
	}
	return g, nil
}

func importData(fd FlowNodeData) (NodeData, error) {
	d := NodeData{
		Label:         fd.Label,
		Value:         fd.Value,
		X:             fd.X,
		Y:             fd.Y,
		Z:             fd.Z,
		W:             fd.W,
		Color:         fd.Color,
		Index:         fd.Index,
		Code:          fd.Code,
		Inputs:        cloneSlice(fd.Inputs),
		MaterialClass: fd.MaterialClass,
		Params:        cloneMap(fd.Params),
		Colors:        cloneMap(fd.Colors),
		Side:          fd.Side,
		Transparent:   fd.Transparent,
		Collapsed:     fd.Collapsed,
	}
	var err error
	if d.OutputType, err = ParseType(fd.OutputType); err != nil {
		return d, err
	}
	if fd.InputTypes != nil {
		d.InputTypes = make(map[string]Type, len(fd.InputTypes))
		for k, name := range fd.InputTypes {
			if d.InputTypes[k], err = ParseType(name); err != nil {
				return d, fmt.Errorf("input %q: %w", k, err)
			}
		}
	}
	if d.InHandles, err = importProxies(fd.InHandles); err != nil {
		return d, err
	}
	if d.OutHandles, err = importProxies(fd.OutHandles); err != nil {
		return d, err
	}
	return d, nil
}

func importProxies(fp []FlowProxy) ([]ProxyHandle, error) {
	if fp == nil {
		return nil, nil
	}
	handles := make([]ProxyHandle, len(fp))
	for i, p := range fp {
		t, err := ParseType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", p.ID, err)
		}
		handles[i] = ProxyHandle{ID: p.ID, Label: p.Label, Node: p.Node, Handle: p.Handle, Type: t, BareEdges: p.BareEdges}
	}
	return handles, nil
}

// WriteJSON writes the persisted form of g to w as indented JSON.
func WriteJSON(w io.Writer, g Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export(g))
}

// ReadJSON decodes a persisted graph from r.
func ReadJSON(r io.Reader) (Graph, error) {
	var fg FlowGraph
	if err := json.NewDecoder(r).Decode(&fg); err != nil {
		return Graph{}, fmt.Errorf("decoding graph json: %w", err)
	}
	return Import(fg)
}

// WriteMsgpack writes the persisted form of g to w as msgpack. Field names
// are the same as in the JSON form.
func WriteMsgpack(w io.Writer, g Graph) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(Export(g))
}

// ReadMsgpack decodes a msgpack encoded persisted graph from r.
func ReadMsgpack(r io.Reader) (Graph, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var fg FlowGraph
	if err := dec.Decode(&fg); err != nil {
		return Graph{}, fmt.Errorf("decoding graph msgpack: %w", err)
	}
	return Import(fg)
}
