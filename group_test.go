package gtsl_test

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/gtsl"
)

var ignoreLayout = cmpopts.IgnoreFields(gtsl.Node{}, "Layout")

// chainGraph builds A -> B -> C -> material with A, B and C grouped.
func chainGraph(t *testing.T) (g gtsl.Graph, grp, c, mat string) {
	t.Helper()
	var bld gtsl.Builder
	a := bld.Float(0.3)
	b := bld.Op(gtsl.KindSin, a)
	c = bld.Op(gtsl.KindOneMinusX, b)
	mat = bld.Material(gtsl.KindMeshStandard, map[string]string{"roughness": c})
	grp = bld.Group("chain", a, b, c)
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	return bld.Graph(), grp, c, mat
}

func TestCollapseChain(t *testing.T) {
	g, grp, c, mat := chainGraph(t)
	collapsed := gtsl.Collapse(g, grp)

	gn, _ := collapsed.Node(grp)
	assert.True(t, gn.Data.Collapsed)
	assert.Equal(t, 0, len(gn.Data.InHandles))
	assert.Equal(t, 1, len(gn.Data.OutHandles))
	proxy := gn.Data.OutHandles[0]
	assert.Equal(t, "out-"+c+"-out", proxy.ID)
	assert.Equal(t, c, proxy.Node)
	assert.Equal(t, "out", proxy.Handle)
	assert.Equal(t, gtsl.TypeFloat, proxy.Type)
	assert.Equal(t, float32(180), gn.Layout.Width)
	assert.Equal(t, float32(28+18), gn.Layout.Height)

	// Boundary edge rewritten in place.
	assert.Equal(t, len(g.Edges), len(collapsed.Edges))
	last := collapsed.Edges[len(collapsed.Edges)-1]
	assert.Equal(t, g.Edges[len(g.Edges)-1].ID, last.ID)
	assert.Equal(t, grp, last.Source)
	assert.Equal(t, proxy.ID, last.SourceHandle)
	for _, id := range collapsed.Children(grp) {
		n, _ := collapsed.Node(id)
		assert.True(t, n.Layout.Hidden, id)
	}

	// Evaluators see through the group.
	src, handle, ok := gtsl.NewIndex(collapsed).InputNode(mat, "roughness")
	assert.True(t, ok)
	assert.Equal(t, c, src.ID)
	assert.Equal(t, "out", handle)

	// Input graph is untouched.
	orig, _ := g.Node(grp)
	assert.False(t, orig.Data.Collapsed)
}

func TestExpandCollapseRoundTrip(t *testing.T) {
	g, grp, _, _ := chainGraph(t)
	expanded := gtsl.Expand(gtsl.Collapse(g, grp), grp)
	if diff := cmp.Diff(g, expanded, ignoreLayout); diff != "" {
		t.Fatalf("expand(collapse(g)) mismatch (-want +got):\n%s", diff)
	}
	gn, _ := expanded.Node(grp)
	// Children at x 0, 200 and 400 with default width 120.
	assert.Equal(t, float32(10+520+2), gn.Layout.Width)
	assert.Equal(t, float32(100), gn.Layout.Height)
	for _, id := range expanded.Children(grp) {
		n, _ := expanded.Node(id)
		assert.False(t, n.Layout.Hidden)
		assert.Equal(t, float32(52), n.Layout.Position.Y)
		assert.Equal(t, 1, n.Layout.ZIndex)
	}
	first, _ := expanded.Node(expanded.Children(grp)[0])
	assert.Equal(t, float32(10), first.Layout.Position.X)
}

func TestExpandCollapseBareHandles(t *testing.T) {
	var bld gtsl.Builder
	s := bld.Op(gtsl.KindSin, bld.Float(1))
	c1 := bld.Op(gtsl.KindCos, s)
	bld.Op(gtsl.KindCos, s)
	grp := bld.Group("g", s)
	g := bld.Graph()
	// One edge names the output implicitly, the other explicitly.
	for i, e := range g.Edges {
		if e.Target == c1 {
			g.Edges[i].SourceHandle = ""
		}
	}
	collapsed := gtsl.Collapse(g, grp)
	gn, _ := collapsed.Node(grp)
	assert.Equal(t, 1, len(gn.Data.OutHandles))
	assert.Equal(t, "out", gn.Data.OutHandles[0].Handle)
	if diff := cmp.Diff(g, gtsl.Expand(collapsed, grp), ignoreLayout); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	assert.NoError(t, gtsl.WriteJSON(&buf, collapsed))
	saved, err := gtsl.ReadJSON(&buf)
	assert.NoError(t, err)
	if diff := cmp.Diff(g, gtsl.Expand(saved, grp), ignoreLayout, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip through json mismatch (-want +got):\n%s", diff)
	}
}

func TestCollapseExposesDanglingHandles(t *testing.T) {
	var bld gtsl.Builder
	x := bld.Float(1)
	add := bld.Op(gtsl.KindAdd, x) // add.b left unconnected.
	sink := bld.Op(gtsl.KindAbs, add)
	grp := bld.Group("g", add)
	g := bld.Graph()
	collapsed := gtsl.Collapse(g, grp)
	gn, _ := collapsed.Node(grp)
	var ins, outs []string
	for _, h := range gn.Data.InHandles {
		ins = append(ins, h.ID)
	}
	for _, h := range gn.Data.OutHandles {
		outs = append(outs, h.ID)
	}
	assert.Equal(t, []string{"in-" + add + "-a", "in-" + add + "-b"}, ins)
	assert.Equal(t, []string{"out-" + add + "-out"}, outs)
	src, _, ok := gtsl.NewIndex(collapsed).InputNode(sink, "a")
	assert.True(t, ok)
	assert.Equal(t, add, src.ID)
	if diff := cmp.Diff(g, gtsl.Expand(collapsed, grp), ignoreLayout); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupNoOps(t *testing.T) {
	g, grp, c, _ := chainGraph(t)
	// Not a group.
	assert.Equal(t, g, gtsl.Collapse(g, c))
	assert.Equal(t, g, gtsl.Expand(g, c))
	// Unknown id.
	assert.Equal(t, g, gtsl.Collapse(g, "ghost"))
	// Expanding an expanded group.
	assert.Equal(t, g, gtsl.Expand(g, grp))
	// Collapsing a collapsed group.
	collapsed := gtsl.Collapse(g, grp)
	assert.Equal(t, collapsed, gtsl.Collapse(collapsed, grp))

	// Empty group.
	var bld gtsl.Builder
	empty := bld.Group("empty")
	eg := bld.Graph()
	assert.Equal(t, eg, gtsl.Collapse(eg, empty))

	// Nested groups are left alone.
	bld = gtsl.Builder{}
	f := bld.Float(1)
	inner := bld.Group("inner", f)
	outer := bld.Group("outer", inner)
	ng := bld.Graph()
	assert.Equal(t, ng, gtsl.Collapse(ng, outer))
}
