package gtslaux

import (
	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/gtsl"
)

// Display holds the preview values of a graph at one instant. A node has
// at most one entry, either in Values or in Colors. Nodes that do not
// resolve to a finite value have no entry.
type Display struct {
	Values map[string]float32
	// Colors holds RGB values in [0,1].
	Colors map[string]ms3.Vec
}

// Value returns the node's preview as a number. Colors read as the mean of their channels.
func (d Display) Value(id string) (float32, bool) {
	if v, ok := d.Values[id]; ok {
		return v, true
	}
	if c, ok := d.Colors[id]; ok {
		return (c.X + c.Y + c.Z) / 3, true
	}
	return 0, false
}

// Color returns the node's preview as a color. Numbers read as a grey
// level of (n+1)/2 clamped to [0,1].
func (d Display) Color(id string) (ms3.Vec, bool) {
	if c, ok := d.Colors[id]; ok {
		return c, true
	}
	if v, ok := d.Values[id]; ok {
		return grey(v), true
	}
	return ms3.Vec{}, false
}

func grey(v float32) ms3.Vec {
	l := ms1.Clamp((v+1)*0.5, 0, 1)
	return ms3.Vec{X: l, Y: l, Z: l}
}

// Preview computes approximate display values of every node of g at time t.
// Preview uses host float32 arithmetic and never fails: out of domain
// inputs resolve to 0 and non-finite results are dropped.
func Preview(g gtsl.Graph, t float32) Display {
	s := &state{
		ix:   gtsl.NewIndex(g),
		time: t,
		d: Display{
			Values: make(map[string]float32),
			Colors: make(map[string]ms3.Vec),
		},
		visited: make(map[string]bool, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		s.resolve(n.ID)
	}
	return s.d
}

type state struct {
	ix      *gtsl.Index
	time    float32
	d       Display
	visited map[string]bool
}

func (s *state) resolve(id string) {
	if s.visited[id] {
		return
	}
	n, ok := s.ix.Node(id)
	if !ok {
		return
	}
	s.visited[id] = true
	for _, e := range s.ix.Incoming(id) {
		s.resolve(e.Source)
	}
	p := previewers[n.Kind]
	if p == nil {
		return
	}
	p(s, n)
}

func (s *state) setValue(id string, v float32) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.d.Values[id] = v
}

// connected returns the numeric value feeding the input handle.
func (s *state) connected(n gtsl.Node, handle string) (float32, bool) {
	e, ok := s.ix.Input(n.ID, handle)
	if !ok {
		return 0, false
	}
	return s.d.Value(e.Source)
}

// input returns the connected value of an input or its port default.
func (s *state) input(n gtsl.Node, port gtsl.Port) float32 {
	if v, ok := s.connected(n, port.ID); ok {
		return v
	}
	if port.DefaultKind == gtsl.KindTime {
		return s.time
	}
	return port.Default
}

// args returns the resolved inputs of a math node in port order.
func (s *state) args(n gtsl.Node) []float32 {
	ports := n.Inputs()
	vals := make([]float32, len(ports))
	for i, port := range ports {
		vals[i] = s.input(n, port)
	}
	return vals
}

type previewer func(s *state, n gtsl.Node)

var previewers = map[gtsl.Kind]previewer{
	gtsl.KindFloat: func(s *state, n gtsl.Node) { s.setValue(n.ID, n.Data.Value) },
	gtsl.KindInt:   func(s *state, n gtsl.Node) { s.setValue(n.ID, math.Trunc(n.Data.Value)) },
	gtsl.KindVec2:  previewVec,
	gtsl.KindVec3:  previewVec,
	gtsl.KindVec4:  previewVec,
	gtsl.KindColor: previewColor,
	gtsl.KindTime:  func(s *state, n gtsl.Node) { s.setValue(n.ID, s.time) },

	gtsl.KindEpsilon:  constant(1e-6),
	gtsl.KindHalfPi:   constant(math.Pi / 2),
	gtsl.KindPi:       constant(math.Pi),
	gtsl.KindTwoPi:    constant(2 * math.Pi),
	gtsl.KindInfinity: constant(math.Inf(1)),

	gtsl.KindTriNoise3D:               previewNoise,
	gtsl.KindInterleavedGradientNoise: previewNoise,

	gtsl.KindCustomFn: previewCustomFn,
}

func init() {
	for k, fn := range unaryOps {
		fn := fn
		previewers[k] = mathOp(func(a []float32) float32 { return fn(a[0]) })
	}
	for k, fn := range binaryOps {
		fn := fn
		previewers[k] = mathOp(func(a []float32) float32 { return fn(a[0], a[1]) })
	}
	for k, fn := range ternaryOps {
		fn := fn
		previewers[k] = mathOp(func(a []float32) float32 { return fn(a[0], a[1], a[2]) })
	}
}

func constant(v float32) previewer {
	return func(s *state, n gtsl.Node) { s.setValue(n.ID, v) }
}

func mathOp(fn func([]float32) float32) previewer {
	return func(s *state, n gtsl.Node) { s.setValue(n.ID, fn(s.args(n))) }
}

// previewVec shows vector literals as colors. Connected components are
// remapped from [-1,1] and literal components are clamped.
func previewVec(s *state, n gtsl.Node) {
	lit := [4]float32{n.Data.X, n.Data.Y, n.Data.Z, n.Data.W}
	var c [3]float32
	for i, port := range n.Inputs() {
		if i == len(c) {
			break
		}
		if v, ok := s.connected(n, port.ID); ok {
			c[i] = ms1.Clamp((v+1)*0.5, 0, 1)
		} else {
			c[i] = ms1.Clamp(lit[i], 0, 1)
		}
	}
	s.d.Colors[n.ID] = ms3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

func previewColor(s *state, n gtsl.Node) {
	c := ms3.Vec{X: 1, Y: 1, Z: 1}
	if rgb, ok := gtsl.ParseHexColor(n.Data.Color); ok {
		c = rgbVec(rgb)
	}
	s.d.Colors[n.ID] = c
}

func rgbVec(rgb [3]uint8) ms3.Vec {
	return ms3.Vec{X: float32(rgb[0]) / 255, Y: float32(rgb[1]) / 255, Z: float32(rgb[2]) / 255}
}

// previewNoise stands in for noise functions with a hash of their inputs in [0,1).
func previewNoise(s *state, n gtsl.Node) {
	var x uint64 = uint64(n.Kind)
	for _, v := range s.args(n) {
		x = hash(math.Float32bits(v), x)
	}
	s.setValue(n.ID, float32(x>>40)/(1<<24))
}

func hash(v uint32, in uint64) uint64 {
	x := in ^ uint64(v)
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
