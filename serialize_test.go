package gtsl_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/gtsl"
)

func richGraph(t *testing.T) gtsl.Graph {
	t.Helper()
	var bld gtsl.Builder
	col := bld.Color("#ff8800")
	tm := bld.Accessor(gtsl.KindTime)
	fn := bld.CustomFn("Fn(([a, b]) => { return vec3(a, b, 0); })", tm, col)
	mat := bld.Material(gtsl.KindMeshPhysical, map[string]string{"color": fn})
	bld.Group("fx", tm, fn)
	g := bld.Graph()
	i := g.Index(fn)
	g.Nodes[i].Data.InputTypes = map[string]gtsl.Type{"b": gtsl.TypeVec3}
	i = g.Index(mat)
	g.Nodes[i].Data.Params = map[string]float32{"ior": 1.45}
	g.Nodes[i].Data.Colors = map[string]string{"sheen": "#102030"}
	g.Nodes[i].Data.Side = 2
	g.Nodes[i].Layout.Width = 220
	g.Nodes = append(g.Nodes, gtsl.Node{ID: "legacy", Kind: gtsl.KindUnknown, RawType: "fancyNode",
		Layout: gtsl.Layout{Position: ms2.Vec{X: -3, Y: 4.5}}})
	return g
}

func TestJSONRoundTrip(t *testing.T) {
	g := richGraph(t)
	var buf bytes.Buffer
	err := gtsl.WriteJSON(&buf, g)
	assert.NoError(t, err)
	got, err := gtsl.ReadJSON(&buf)
	assert.NoError(t, err)
	if diff := cmp.Diff(g, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("json round trip mismatch (-want +got):\n%s", diff)
	}

	// Collapsed groups keep their proxy maps.
	grp := g.Nodes[len(g.Nodes)-2].ID
	collapsed := gtsl.Collapse(g, grp)
	buf.Reset()
	assert.NoError(t, gtsl.WriteJSON(&buf, collapsed))
	got, err = gtsl.ReadJSON(&buf)
	assert.NoError(t, err)
	if diff := cmp.Diff(collapsed, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("collapsed round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMsgpackMatchesJSON(t *testing.T) {
	g := gtsl.Collapse(richGraph(t), "group-5")
	var buf bytes.Buffer
	assert.NoError(t, gtsl.WriteMsgpack(&buf, g))
	fromMsgpack, err := gtsl.ReadMsgpack(&buf)
	assert.NoError(t, err)
	buf.Reset()
	assert.NoError(t, gtsl.WriteJSON(&buf, g))
	fromJSON, err := gtsl.ReadJSON(&buf)
	assert.NoError(t, err)
	if diff := cmp.Diff(fromJSON, fromMsgpack, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("msgpack mismatch (-json +msgpack):\n%s", diff)
	}
}

func TestImportDefaults(t *testing.T) {
	const persisted = `{"nodes":[{"id":"n1"},{"id":"n2","type":"mul","position":{"x":5,"y":6},"data":{"label":"M"}}],
		"edges":[{"id":"e","source":"n1","target":"n2","sourceHandle":null,"targetHandle":"a"}]}`
	g, err := gtsl.ReadJSON(strings.NewReader(persisted))
	assert.NoError(t, err)
	assert.Equal(t, gtsl.KindUnknown, g.Nodes[0].Kind)
	assert.Equal(t, "default", g.Nodes[0].TypeName())
	assert.Equal(t, ms2.Vec{}, g.Nodes[0].Layout.Position)
	assert.Equal(t, gtsl.KindMultiply, g.Nodes[1].Kind)
	assert.Equal(t, ms2.Vec{X: 5, Y: 6}, g.Nodes[1].Layout.Position)
	assert.Equal(t, "", g.Edges[0].SourceHandle)

	_, err = gtsl.ReadJSON(strings.NewReader(`{"nodes":[{"id":"c","type":"customFn","data":{"outputType":"matrix"}}]}`))
	assert.Error(t, err)
}

func TestToNodeMaterial(t *testing.T) {
	var bld gtsl.Builder
	r := bld.Float(0.25)
	inv := bld.Op(gtsl.KindOneMinusX, r)
	mat := bld.Material(gtsl.KindMeshStandard, map[string]string{"roughness": inv})
	grp := bld.Group("g", r, inv)
	g := bld.Graph()
	i := g.Index(mat)
	g.Nodes[i].Data.Colors = map[string]string{"color": "#ff8000"}
	g.Nodes[i].Data.Params = map[string]float32{"roughness": 0.9, "metalness": 0.1}
	g = gtsl.Collapse(g, grp)

	nm := gtsl.ToNodeMaterial(g, "")
	assert.Equal(t, "NodeMaterial", nm.Type)
	assert.Equal(t, "NodeMaterial", nm.Name)
	_, hasGroup := nm.Nodes[grp]
	assert.False(t, hasGroup)
	assert.Equal(t, []gtsl.Connection{
		{From: r, To: inv, ToPin: "a"},
		{From: inv, To: mat, ToPin: "roughnessNode"},
	}, nm.Connections)

	out := nm.Nodes[mat]
	assert.Equal(t, "output", out["type"])
	assert.Equal(t, "MeshStandardNodeMaterial", out["materialClass"])
	assert.Equal(t, 0xff8000, out["color"])
	assert.Equal(t, any(float32(0.1)), out["metalness"])
	_, hasRoughness := out["roughness"]
	assert.False(t, hasRoughness, "connected slots are omitted")
	assert.Equal(t, "OneMinusX", nm.Nodes[inv]["type"])
	assert.Equal(t, "float", nm.Nodes[r]["type"])

	// The interchange form is plain JSON.
	b, err := json.Marshal(nm)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"toPin":"roughnessNode"`))
}
