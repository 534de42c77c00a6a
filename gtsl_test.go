package gtsl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/soypat/gtsl"
)

func TestTopoSort(t *testing.T) {
	nodes := []gtsl.Node{{ID: "c"}, {ID: "a"}, {ID: "b"}, {ID: "d"}}
	edges := []gtsl.Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "ghost", Target: "d"}, // Unknown endpoints are ignored.
	}
	got := gtsl.TopoSort(nodes, edges)
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)

	strict, err := gtsl.TopoSortStrict(nodes, edges)
	assert.NoError(t, err)
	assert.Equal(t, got, strict)
}

func TestTopoSortCycle(t *testing.T) {
	nodes := []gtsl.Node{{ID: "x"}, {ID: "y"}, {ID: "z"}, {ID: "free"}}
	edges := []gtsl.Edge{
		{Source: "x", Target: "y"},
		{Source: "y", Target: "x"},
		{Source: "y", Target: "z"},
	}
	lenient := gtsl.TopoSort(nodes, edges)
	assert.Equal(t, []string{"free", "x", "y", "z"}, lenient)

	_, err := gtsl.TopoSortStrict(nodes, edges)
	assert.True(t, errors.Is(err, gtsl.ErrCycleDetected))
	var cerr *gtsl.CycleError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"x", "y", "z"}, cerr.Nodes)
}

func TestBuilderChain(t *testing.T) {
	var bld gtsl.Builder
	half := bld.Float(0.5)
	tm := bld.Accessor(gtsl.KindTime)
	s := bld.Op(gtsl.KindSin, tm)
	m := bld.Op(gtsl.KindMultiply, s, half)
	mat := bld.Material(gtsl.KindMeshStandard, map[string]string{"roughness": m, "metalness": half})
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	g := bld.Graph()
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 5, len(g.Nodes))
	assert.Equal(t, 5, len(g.Edges))
	in := gtsl.NewIndex(g)
	src, handle, ok := in.InputNode(mat, "roughness")
	assert.True(t, ok)
	assert.Equal(t, m, src.ID)
	assert.Equal(t, "out", handle)
	src, handle, ok = in.InputNode(m, "b")
	assert.True(t, ok)
	assert.Equal(t, half, src.ID)
	assert.Equal(t, "value", handle)
	out, ok := in.OutputNode()
	assert.True(t, ok)
	assert.Equal(t, mat, out.ID)
	// Edges carry the display colors of their handle types.
	assert.Equal(t, gtsl.TypeFloat.Color(), g.Edges[0].Data.TypeColor)
}

func TestBuilderErrors(t *testing.T) {
	bld := gtsl.Builder{NoConnectionPanic: true}
	a := bld.Float(1)
	b := bld.Float(2)
	add := bld.Op(gtsl.KindAdd, a)
	bld.Connect(b, "", add, "a") // Second writer to add.a.
	bld.Connect(b, "", add, "nope")
	bld.Connect(b, "nope", add, "b")
	bld.Connect("ghost", "", add, "b")
	bld.CustomFn("Fn(([a]) => { return foo(a); })")
	err := bld.Err()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, gtsl.ErrMultipleWriters))
	msg := err.Error()
	for _, want := range []string{`no input "nope"`, `no output "nope"`, `unknown source node "ghost"`, "foo is not defined"} {
		assert.True(t, strings.Contains(msg, want), want)
	}
	// Only the first connection was made.
	assert.Equal(t, 1, len(bld.Graph().Edges))
}

func TestBuilderPanics(t *testing.T) {
	var bld gtsl.Builder
	a := bld.Float(1)
	add := bld.Op(gtsl.KindAdd, a)
	assert.Panics(t, func() { bld.Connect(a, "", add, "a") })
}

func TestValidateReportsAll(t *testing.T) {
	g := gtsl.Graph{
		Nodes: []gtsl.Node{
			{ID: "f", Kind: gtsl.KindFloat},
			{ID: "f", Kind: gtsl.KindFloat},
			{ID: "add", Kind: gtsl.KindAdd, ParentID: "f"},
		},
		Edges: []gtsl.Edge{
			{ID: "e1", Source: "f", SourceHandle: "value", Target: "add", TargetHandle: "a"},
			{ID: "e2", Source: "f", SourceHandle: "value", Target: "add", TargetHandle: "a"},
			{ID: "e2", Source: "ghost", Target: "add", TargetHandle: "zz"},
		},
	}
	err := g.Validate()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, gtsl.ErrMultipleWriters))
	msg := err.Error()
	for _, want := range []string{
		`duplicate node id "f"`,
		`parent "f" is float, not a group`,
		`duplicate edge id "e2"`,
		`unknown source node "ghost"`,
		`no input "zz"`,
	} {
		assert.True(t, strings.Contains(msg, want), want)
	}
}

func TestHandleTypes(t *testing.T) {
	fn := gtsl.Node{Kind: gtsl.KindCustomFn, Data: gtsl.NodeData{
		Code:       "Fn(([a, b]) => vec3(a, b, 0))",
		InputTypes: map[string]gtsl.Type{"b": gtsl.TypeVec2},
	}}
	for _, test := range []struct {
		node   gtsl.Node
		handle string
		want   gtsl.Type
	}{
		{gtsl.Node{Kind: gtsl.KindColor}, "color", gtsl.TypeVec4},
		{gtsl.Node{Kind: gtsl.KindColor}, "r", gtsl.TypeFloat},
		{gtsl.Node{Kind: gtsl.KindVec3}, "xyz", gtsl.TypeVec3},
		{gtsl.Node{Kind: gtsl.KindUV}, "xy", gtsl.TypeVec2},
		{gtsl.Node{Kind: gtsl.KindUV}, "index", gtsl.TypeInt},
		{gtsl.Node{Kind: gtsl.KindPositionWorld}, "xyz", gtsl.TypeVec3},
		{gtsl.Node{Kind: gtsl.KindMeshStandard}, "color", gtsl.TypeVec3},
		{gtsl.Node{Kind: gtsl.KindMeshPhysical}, "ior", gtsl.TypeFloat},
		{gtsl.Node{Kind: gtsl.KindAdd}, "a", gtsl.TypeFloat},
		{gtsl.Node{Kind: gtsl.KindReflect}, "n", gtsl.TypeVec3},
		{gtsl.Node{Kind: gtsl.KindGroup}, "in-x-a", gtsl.TypeAny},
		{fn, "out", gtsl.TypeVec3},
		{fn, "b", gtsl.TypeVec2},
		{fn, "a", gtsl.TypeFloat},
	} {
		got := gtsl.HandleType(test.node, test.handle)
		assert.Equal(t, test.want, got, test.node.TypeName()+":"+test.handle)
	}
	assert.Equal(t, "#ffc107", gtsl.TypeVec3.Color())
	assert.Equal(t, 3, gtsl.TypeColor.Arity())
}

func TestParseKind(t *testing.T) {
	for _, k := range gtsl.Kinds() {
		got, ok := gtsl.ParseKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	k, ok := gtsl.ParseKind("mul")
	assert.True(t, ok)
	assert.Equal(t, gtsl.KindMultiply, k)
	_, ok = gtsl.ParseKind("noSuchKind")
	assert.False(t, ok)
}

func TestMaterialFamily(t *testing.T) {
	out := gtsl.Node{Kind: gtsl.KindOutput}
	assert.Equal(t, gtsl.KindMeshStandard, gtsl.MaterialFamily(out))
	out.Data.MaterialClass = "MeshPhongNodeMaterial"
	assert.Equal(t, gtsl.KindMeshPhong, gtsl.MaterialFamily(out))
	out.Data.MaterialClass = "meshToonMaterial"
	assert.Equal(t, gtsl.KindMeshToon, gtsl.MaterialFamily(out))
	slot, ok := gtsl.KindMeshStandard.Slot("roughness")
	assert.True(t, ok)
	assert.Equal(t, float32(0.5), slot.Default)
	assert.Equal(t, "roughnessNode", slot.Prop())
}
