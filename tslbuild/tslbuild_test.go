package tslbuild_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/soypat/gtsl"
	"github.com/soypat/gtsl/tslbuild"
)

func TestEmptyGraph(t *testing.T) {
	got := tslbuild.FormatTSL(gtsl.Graph{})
	assert.Equal(t, "// Empty graph", got)
}

func TestRoughnessLiteral(t *testing.T) {
	var bld gtsl.Builder
	half := bld.Float(0.5)
	bld.Material(gtsl.KindMeshStandard, map[string]string{"roughness": half})
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	const want = `import { MeshStandardNodeMaterial, color, float, int } from 'three/tsl';

// Generated TSL Code

const _node0 = float( 0.5 );

// Material
const material = new MeshStandardNodeMaterial();
material.roughnessNode = _node0;
material.colorNode = color("#ffffff");
material.metalnessNode = float(0);
material.emissiveNode = color("#000000");
material.aoNode = float(1);
material.opacityNode = float(1);
material.side = 0;
material.transparent = false;
material.depthWrite = true;`
	got := tslbuild.FormatTSL(bld.Graph())
	assert.Equal(t, want, got)
}

func TestDeterministic(t *testing.T) {
	g := noiseGraph(t)
	first := tslbuild.FormatTSL(g)
	for i := 0; i < 8; i++ {
		assert.Equal(t, first, tslbuild.FormatTSL(g))
	}
	var buf bytes.Buffer
	p := tslbuild.NewDefaultProgrammer()
	n, err := p.WriteTSL(&buf, g)
	assert.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, first, buf.String())
	// Programmer reuse yields identical output.
	buf.Reset()
	_, err = p.WriteTSL(&buf, g)
	assert.NoError(t, err)
	assert.Equal(t, first, buf.String())
}

func noiseGraph(t *testing.T) gtsl.Graph {
	t.Helper()
	var bld gtsl.Builder
	noise := bld.Op(gtsl.KindTriNoise3D)
	ign := bld.Op(gtsl.KindInterleavedGradientNoise)
	mix := bld.Op(gtsl.KindMix, noise, ign)
	col := bld.Color("#336699")
	bld.Material(gtsl.KindMeshPhysical, map[string]string{"roughness": mix, "color": col})
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	return bld.Graph()
}

func TestNoiseDefaults(t *testing.T) {
	got := tslbuild.FormatTSL(noiseGraph(t))
	for _, want := range []string{
		"import { MeshPhysicalNodeMaterial, color, float, int, interleavedGradientNoise, mix, positionWorld, time, triNoise3D, uv } from 'three/tsl';",
		"const _node0 = triNoise3D( positionWorld, float(1), time );",
		"const _node1 = interleavedGradientNoise( uv( 0 ) );",
		`const _node2 = color( "#336699" );`,
		"const _node3 = mix( _node0, _node1, float(0.5) );",
		"material.colorNode = _node2;",
		"material.roughnessNode = _node3;",
	} {
		assert.True(t, strings.Contains(got, want), want+"\n"+got)
	}
	assert.False(t, strings.Contains(got, `material.colorNode = color("#ffffff")`))
}

func TestOperatorForms(t *testing.T) {
	var bld gtsl.Builder
	x := bld.Float(2)
	omx := bld.Op(gtsl.KindOneMinusX, x)
	odx := bld.Op(gtsl.KindOneDivX, omx)
	bld.Op(gtsl.KindDifference, odx, x)
	bld.Op(gtsl.KindPi)
	bld.Op(gtsl.KindEpsilon)
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	got := tslbuild.FormatTSL(bld.Graph())
	for _, want := range []string{
		"const _node0 = float( 2 );",
		"const _node1 = float( 3.141592653589793 );",
		"const _node2 = float( 1e-6 );",
		"const _node3 = sub( float(1), _node0 );",
		"const _node4 = div( float(1), _node3 );",
		"const _node5 = abs( sub( _node4, _node0 ) );",
	} {
		assert.True(t, strings.Contains(got, want), want+"\n"+got)
	}
}

func TestComponentSwizzle(t *testing.T) {
	bld := gtsl.Builder{NoConnectionPanic: true}
	v := bld.Vec3(1, 2, 3)
	s := bld.AddNode(gtsl.KindSin, gtsl.NodeData{})
	bld.Connect(v, "y", s, "a")
	got := tslbuild.FormatTSL(bld.Graph())
	assert.True(t, strings.Contains(got, "const _node1 = sin( _node0.y );"), got)
}

func TestCustomFnCall(t *testing.T) {
	var bld gtsl.Builder
	tm := bld.Accessor(gtsl.KindTime)
	fn := bld.CustomFn(`Fn(([a, b]) => {
		// tint
		return vec3(a, b, 0);
	})`, tm)
	bld.Material(gtsl.KindMeshBasic, map[string]string{"color": fn})
	got := tslbuild.FormatTSL(bld.Graph())
	assert.True(t, strings.Contains(got,
		"const _node1 = (Fn(([a, b]) => { return vec3(a, b, 0); }))([_node0, float(0)]);"), got)
	assert.True(t, strings.Contains(got, "import { Fn, MeshBasicNodeMaterial, color, float, int, time, vec3 } from 'three/tsl';"), got)
	assert.True(t, strings.Contains(got, "material.opacityNode = float(1);"), got)
	assert.False(t, strings.Contains(got, "roughnessNode"), got)
}

func TestCollapsedGroupIsTransparent(t *testing.T) {
	var bld gtsl.Builder
	a := bld.Float(0.3)
	b := bld.Op(gtsl.KindSin, a)
	c := bld.Op(gtsl.KindOneMinusX, b)
	bld.Material(gtsl.KindMeshStandard, map[string]string{"roughness": c})
	grp := bld.Group("chain", a, b, c)
	g := bld.Graph()
	want := tslbuild.FormatTSL(g)
	got := tslbuild.FormatTSL(gtsl.Collapse(g, grp))
	assert.Equal(t, want, got)
	assert.True(t, strings.Contains(got, "material.roughnessNode = _node2;"), got)
}

func TestMaterialParams(t *testing.T) {
	var bld gtsl.Builder
	mat := bld.Material(gtsl.KindMeshStandard, nil)
	g := bld.Graph()
	i := g.Index(mat)
	g.Nodes[i].Data.Params = map[string]float32{"metalness": 0.75}
	g.Nodes[i].Data.Colors = map[string]string{"color": "#ff0000"}
	g.Nodes[i].Data.Side = 2
	g.Nodes[i].Data.Transparent = true
	got := tslbuild.FormatTSL(g)
	for _, want := range []string{
		`material.colorNode = color("#ff0000");`,
		"material.metalnessNode = float(0.75);",
		"material.side = 2;",
		"material.transparent = true;",
		"material.depthWrite = true;",
	} {
		assert.True(t, strings.Contains(got, want), want+"\n"+got)
	}
}

func TestStrictCycle(t *testing.T) {
	g := gtsl.Graph{
		Nodes: []gtsl.Node{{ID: "s", Kind: gtsl.KindSin}, {ID: "c", Kind: gtsl.KindCos}},
		Edges: []gtsl.Edge{
			{ID: "1", Source: "s", SourceHandle: "out", Target: "c", TargetHandle: "a"},
			{ID: "2", Source: "c", SourceHandle: "out", Target: "s", TargetHandle: "a"},
		},
	}
	p := tslbuild.NewDefaultProgrammer()
	p.Strict = true
	var buf bytes.Buffer
	_, err := p.WriteTSL(&buf, g)
	assert.True(t, errors.Is(err, gtsl.ErrCycleDetected))
	assert.Equal(t, 0, buf.Len())

	// Lenient generation still emits every node.
	got := tslbuild.FormatTSL(g)
	assert.True(t, strings.Contains(got, "_node1 = "), got)
}

func TestAppendNumber(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{0, "0"},
		{1, "1"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{1e-7, "1e-07"},
		{3e21, "3e+21"},
		{123456, "123456"},
		{float32(math.Inf(1)), "Infinity"},
		{float32(math.Inf(-1)), "-Infinity"},
		{float32(math.NaN()), "NaN"},
	} {
		got := string(tslbuild.AppendNumber(nil, test.v))
		assert.Equal(t, test.want, got)
	}
}

func TestAllKindsEmit(t *testing.T) {
	for _, k := range gtsl.Kinds() {
		if k.IsMaterial() || k == gtsl.KindGroup {
			continue
		}
		g := gtsl.Graph{Nodes: []gtsl.Node{{ID: "n", Kind: k}}}
		got := tslbuild.FormatTSL(g)
		assert.True(t, strings.Contains(got, "const _node0 = "), k.String())
	}
}
