package gtsl

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/gtsl/tslfn"
)

// Builder constructs graphs programmatically.
// Provides error handling strategies with panics or error accumulation during graph construction.
type Builder struct {
	NoConnectionPanic bool
	accumErrs         []error
	g                 Graph
	writers           map[[2]string]struct{}
	nextID            int
	// cursor lays nodes out left to right for readable persisted graphs.
	cursor ms2.Vec
}

func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) connectErrorf(msg string, args ...any) {
	err := fmt.Errorf(msg, args...)
	if !bld.NoConnectionPanic {
		panic(err.Error())
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

// Graph returns a copy of the graph built so far.
func (bld *Builder) Graph() Graph { return bld.g.Clone() }

// AddNode adds a node of the given kind and returns its id. Ids are
// derived from the kind name and a counter.
func (bld *Builder) AddNode(kind Kind, data NodeData) string {
	bld.nextID++
	id := kind.String() + "-" + strconv.Itoa(bld.nextID)
	bld.g.Nodes = append(bld.g.Nodes, Node{
		ID:   id,
		Kind: kind,
		Data: data,
		Layout: Layout{
			Position: bld.cursor,
		},
	})
	bld.cursor.X += 200
	return id
}

// Connect adds an edge from the source node's output handle to the target
// node's input handle. Empty handles select the node's first port.
func (bld *Builder) Connect(src, srcHandle, dst, dstHandle string) {
	srcNode, ok := bld.g.Node(src)
	if !ok {
		bld.connectErrorf("connect: unknown source node %q", src)
		return
	}
	dstNode, ok := bld.g.Node(dst)
	if !ok {
		bld.connectErrorf("connect: unknown target node %q", dst)
		return
	}
	if srcHandle == "" {
		outs := srcNode.Outputs()
		if len(outs) == 0 {
			bld.connectErrorf("connect: %s node %q has no outputs", srcNode.TypeName(), src)
			return
		}
		srcHandle = outs[len(outs)-1].ID
	} else if hasStaticHandles(srcNode) && !hasOutput(srcNode, srcHandle) {
		bld.connectErrorf("connect: %s node %q has no output %q", srcNode.TypeName(), src, srcHandle)
		return
	}
	if dstHandle == "" {
		ins := dstNode.Inputs()
		if len(ins) == 0 {
			bld.connectErrorf("connect: %s node %q has no inputs", dstNode.TypeName(), dst)
			return
		}
		dstHandle = ins[0].ID
	} else if hasStaticHandles(dstNode) {
		if _, ok := dstNode.InputPort(dstHandle); !ok {
			bld.connectErrorf("connect: %s node %q has no input %q", dstNode.TypeName(), dst, dstHandle)
			return
		}
	}
	key := [2]string{dst, dstHandle}
	if bld.writers == nil {
		bld.writers = make(map[[2]string]struct{})
	}
	if _, taken := bld.writers[key]; taken {
		bld.connectErrorf("connect: %s.%s: %w", dst, dstHandle, ErrMultipleWriters)
		return
	}
	bld.writers[key] = struct{}{}
	bld.g.Edges = append(bld.g.Edges, Edge{
		ID:           "e-" + src + "-" + srcHandle + "-" + dst + "-" + dstHandle,
		Source:       src,
		SourceHandle: srcHandle,
		Target:       dst,
		TargetHandle: dstHandle,
		Data: EdgeData{
			TypeColor:       HandleType(srcNode, srcHandle).Color(),
			TargetTypeColor: HandleType(dstNode, dstHandle).Color(),
		},
	})
}

// Float adds a float literal node.
func (bld *Builder) Float(v float32) string { return bld.AddNode(KindFloat, NodeData{Value: v}) }

// Int adds an int literal node.
func (bld *Builder) Int(v int) string { return bld.AddNode(KindInt, NodeData{Value: float32(v)}) }

// Vec2 adds a vec2 literal node.
func (bld *Builder) Vec2(x, y float32) string {
	return bld.AddNode(KindVec2, NodeData{X: x, Y: y})
}

// Vec3 adds a vec3 literal node.
func (bld *Builder) Vec3(x, y, z float32) string {
	return bld.AddNode(KindVec3, NodeData{X: x, Y: y, Z: z})
}

// Vec4 adds a vec4 literal node.
func (bld *Builder) Vec4(x, y, z, w float32) string {
	return bld.AddNode(KindVec4, NodeData{X: x, Y: y, Z: z, W: w})
}

// Color adds a color literal node from a hex string such as "#ff0000".
func (bld *Builder) Color(hex string) string {
	return bld.AddNode(KindColor, NodeData{Color: hex})
}

// Accessor adds a geometry or time accessor node.
func (bld *Builder) Accessor(kind Kind) string {
	if kind.Class() != ClassAccessor {
		bld.connectErrorf("accessor: %s is not an accessor kind", kind)
	}
	return bld.AddNode(kind, NodeData{})
}

// Op adds a math, constant or noise node and connects args to its inputs in port order.
func (bld *Builder) Op(kind Kind, args ...string) string {
	switch kind.Class() {
	case ClassUnary, ClassBinary, ClassTernary, ClassConstant, ClassNoise:
	default:
		bld.connectErrorf("op: %s is not an operation kind", kind)
	}
	ins := kind.Inputs()
	if len(args) > len(ins) {
		bld.connectErrorf("op: %s takes %d inputs, got %d", kind, len(ins), len(args))
		args = args[:len(ins)]
	}
	id := bld.AddNode(kind, NodeData{})
	for i, arg := range args {
		if arg == "" {
			continue // Leave unconnected.
		}
		bld.Connect(arg, "", id, ins[i].ID)
	}
	return id
}

// CustomFn adds a custom function node after validating its code against
// the known symbol table. Arguments connect to the parameters in order.
func (bld *Builder) CustomFn(code string, args ...string) string {
	res := tslfn.Validate(code, nil)
	if !res.Valid {
		bld.connectErrorf("customFn: %s", res.Message)
	}
	ports := make([]Port, len(res.Params))
	for i, p := range res.Params {
		ports[i] = Port{ID: p.ID, Label: p.Label}
	}
	id := bld.AddNode(KindCustomFn, NodeData{Code: code, Inputs: ports})
	if len(args) > len(ports) {
		bld.connectErrorf("customFn: takes %d inputs, got %d", len(ports), len(args))
		args = args[:len(ports)]
	}
	for i, arg := range args {
		if arg != "" {
			bld.Connect(arg, "", id, ports[i].ID)
		}
	}
	return id
}

// Material adds a material output node of the given family and connects
// the slots in the map.
func (bld *Builder) Material(family Kind, slots map[string]string) string {
	if !family.IsMaterial() {
		bld.connectErrorf("material: %s is not a material kind", family)
	}
	id := bld.AddNode(family, NodeData{})
	// Connect in slot order so edge order is deterministic.
	for _, s := range family.Slots() {
		if src, ok := slots[s.ID]; ok {
			bld.Connect(src, "", id, s.ID)
		}
	}
	for name := range slots {
		if _, ok := family.Slot(name); !ok {
			bld.connectErrorf("material: %s has no slot %q", family, name)
		}
	}
	return id
}

// Group adds an expanded group node and parents the given children to it.
func (bld *Builder) Group(label string, children ...string) string {
	id := bld.AddNode(KindGroup, NodeData{Label: label})
	for _, child := range children {
		i := bld.g.Index(child)
		if i < 0 {
			bld.connectErrorf("group: unknown child %q", child)
			continue
		}
		bld.g.Nodes[i].ParentID = id
	}
	return id
}
