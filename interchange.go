package gtsl

import "strings"

// DefaultCustomFnCode is substituted for custom functions with no code
// when translating to the runtime interchange form.
const DefaultCustomFnCode = "Fn(([a]) => TSL.vec3(0.5, 0, 0.5))"

// NodeMaterial is the runtime interchange form of a graph consumed by
// material loaders.
type NodeMaterial struct {
	Type        string               `json:"type"`
	Name        string               `json:"name"`
	Nodes       map[string]InterNode `json:"nodes"`
	Connections []Connection         `json:"connections"`
}

// InterNode holds a node's type and fields in the interchange form.
type InterNode map[string]any

// Connection wires the output of From into pin ToPin of To. Material pins
// are named after the material property, i.e. "colorNode".
type Connection struct {
	From  string `json:"from"`
	To    string `json:"to"`
	ToPin string `json:"toPin"`
}

// ToNodeMaterial translates g into the runtime interchange form. Group
// nodes are dropped and edges through collapsed groups are resolved to the
// interior endpoints. Edges with an endpoint missing from the result are dropped.
func ToNodeMaterial(g Graph, name string) NodeMaterial {
	if name == "" {
		name = "NodeMaterial"
	}
	ix := NewIndex(g)
	nm := NodeMaterial{
		Type:        "NodeMaterial",
		Name:        name,
		Nodes:       make(map[string]InterNode, len(g.Nodes)),
		Connections: []Connection{},
	}
	for _, n := range g.Nodes {
		if n.Kind == KindGroup {
			continue
		}
		nm.Nodes[n.ID] = interNode(ix, n)
	}
	for _, e := range ix.Edges() {
		if _, ok := nm.Nodes[e.Source]; !ok {
			continue
		}
		if _, ok := nm.Nodes[e.Target]; !ok {
			continue
		}
		pin := e.TargetHandle
		if pin == "" {
			pin = "a"
		}
		if tgt, _ := ix.Node(e.Target); tgt.Kind.IsMaterial() {
			if s, ok := MaterialFamily(tgt).Slot(pin); ok {
				pin = s.Prop()
			}
		}
		nm.Connections = append(nm.Connections, Connection{From: e.Source, To: e.Target, ToPin: pin})
	}
	return nm
}

func interNode(ix *Index, n Node) InterNode {
	d := n.Data
	in := InterNode{
		"position": map[string]float32{"x": n.Layout.Position.X, "y": n.Layout.Position.Y},
	}
	switch c := n.Kind.Class(); {
	case n.Kind.IsMaterial():
		fam := MaterialFamily(n)
		in["type"] = "output"
		in["materialClass"] = fam.Symbol()
		in["side"] = d.Side
		in["transparent"] = d.Transparent
		in["depthWrite"] = true
		for _, s := range fam.Slots() {
			if _, connected := ix.Input(n.ID, s.ID); connected {
				continue
			}
			if hex, ok := d.Colors[s.ID]; ok {
				if rgb, ok := ParseHexColor(hex); ok {
					in[s.ID] = PackedColor(rgb)
				}
			} else if v, ok := d.Params[s.ID]; ok {
				in[s.ID] = v
			}
		}
	case n.Kind == KindColor:
		r, g, b := float32(1), float32(1), float32(1)
		if rgb, ok := ParseHexColor(d.Color); ok {
			r, g, b = float32(rgb[0])/255, float32(rgb[1])/255, float32(rgb[2])/255
		}
		in["type"] = "Color"
		in["r"], in["g"], in["b"] = r, g, b
	case n.Kind == KindFloat || n.Kind == KindInt:
		in["type"] = n.Kind.String()
		in["value"] = d.Value
	case n.Kind == KindVec2:
		in["type"] = "Vec2"
		in["x"], in["y"] = d.X, d.Y
	case n.Kind == KindVec3:
		in["type"] = "Vec3"
		in["x"], in["y"], in["z"] = d.X, d.Y, d.Z
	case n.Kind == KindVec4:
		in["type"] = "Vec4"
		in["x"], in["y"], in["z"], in["w"] = d.X, d.Y, d.Z, d.W
	case n.Kind == KindUV:
		in["type"] = "uv"
		in["index"] = d.Index
	case c == ClassUnary || c == ClassBinary || c == ClassTernary || c == ClassConstant:
		name := n.Kind.String()
		in["type"] = strings.ToUpper(name[:1]) + name[1:]
	case c == ClassAccessor || c == ClassNoise:
		in["type"] = n.Kind.String()
	case c == ClassCustomFn:
		code := strings.TrimSpace(d.Code)
		if code == "" {
			code = DefaultCustomFnCode
		}
		inputs := d.Inputs
		if inputs == nil {
			inputs = []Port{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}}
		}
		out := d.OutputType
		if out == TypeAny {
			out = NodeData{Code: code}.CustomFnOutputType()
		}
		in["type"] = "customFn"
		in["code"] = code
		in["inputs"] = inputs
		in["outputType"] = out.String()
	default:
		in["type"] = "float"
		in["value"] = float32(0)
	}
	return in
}
