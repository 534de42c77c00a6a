package gtslaux

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/gtsl"
	"github.com/soypat/gtsl/tslfn"
)

var (
	vec3ReturnRE  = regexp.MustCompile(`return\s+vec3\s*\(\s*([^,)]+)\s*,\s*([^,)]+)\s*,\s*([^)]+)\s*\)`)
	colorReturnRE = regexp.MustCompile(`return\s+color\s*\(\s*["'](#[\da-fA-F]{3,8})["']\s*\)`)
	conditionRE   = regexp.MustCompile(`if\s*\(\s*([a-zA-Z_]\w*)\s*(>=|<=|===?|!==?|>|<)\s*([^)]+)\)`)
)

// previewCustomFn recognizes a few common custom function shapes without
// executing them. In order of preference:
//   - one if (arg op literal) choosing between two returned colors.
//   - return vec3(x, y, z) where each component is a literal or an argument.
//   - a single returned literal color.
//   - for color outputs, the first input readable as a color.
//   - the mean of the numeric inputs.
func previewCustomFn(s *state, n gtsl.Node) {
	code := tslfn.StripComments(n.Data.Code)
	returns := s.returnColors(n, code)
	if cond := conditionRE.FindStringSubmatch(code); cond != nil && len(returns) >= 2 {
		if lit, err := strconv.ParseFloat(strings.TrimSpace(cond[3]), 32); err == nil {
			// The tested argument is compared at its current value, zero when unconnected.
			arg := s.component(n, cond[1])
			if compare(arg, cond[2], float32(lit)) {
				s.d.Colors[n.ID] = returns[0]
			} else {
				s.d.Colors[n.ID] = returns[1]
			}
			return
		}
	}
	if loc := vec3ReturnRE.FindStringSubmatchIndex(code); loc != nil {
		s.d.Colors[n.ID] = s.vec3Return(n, code, loc)
		return
	}
	if len(returns) == 1 {
		s.d.Colors[n.ID] = returns[0]
		return
	}
	incoming := s.ix.Incoming(n.ID)
	if t := n.Data.CustomFnOutputType(); t == gtsl.TypeVec3 || t == gtsl.TypeColor {
		for _, e := range incoming {
			if c, ok := s.d.Color(e.Source); ok {
				s.d.Colors[n.ID] = c
				return
			}
		}
	}
	var sum float32
	var count int
	for _, e := range incoming {
		if v, ok := s.d.Value(e.Source); ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		s.setValue(n.ID, 0)
		return
	}
	s.setValue(n.ID, sum/float32(count))
}

// returnColors evaluates the vec3 and literal color returns of code in source order.
func (s *state) returnColors(n gtsl.Node, code string) []ms3.Vec {
	type match struct {
		pos int
		c   ms3.Vec
	}
	var matches []match
	for _, loc := range vec3ReturnRE.FindAllStringSubmatchIndex(code, -1) {
		matches = append(matches, match{pos: loc[0], c: s.vec3Return(n, code, loc)})
	}
	for _, loc := range colorReturnRE.FindAllStringSubmatchIndex(code, -1) {
		rgb, ok := gtsl.ParseHexColor(code[loc[2]:loc[3]])
		if !ok {
			continue
		}
		matches = append(matches, match{pos: loc[0], c: rgbVec(rgb)})
	}
	// Merge the two lists by position.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].pos < matches[j-1].pos; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	colors := make([]ms3.Vec, len(matches))
	for i, m := range matches {
		colors[i] = m.c
	}
	return colors
}

// vec3Return evaluates the components of a vec3ReturnRE match clamped to [0,1].
func (s *state) vec3Return(n gtsl.Node, code string, loc []int) ms3.Vec {
	var c [3]float32
	for i := range c {
		c[i] = ms1.Clamp(s.component(n, code[loc[2+2*i]:loc[3+2*i]]), 0, 1)
	}
	return ms3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

// component evaluates a numeric literal or the named argument of n.
// Anything else is zero.
func (s *state) component(n gtsl.Node, expr string) float32 {
	expr = strings.TrimSpace(expr)
	if v, err := strconv.ParseFloat(expr, 32); err == nil {
		return float32(v)
	}
	if port, ok := n.InputPort(expr); ok {
		v, _ := s.connected(n, port.ID)
		return v
	}
	return 0
}

func compare(a float32, op string, b float32) bool {
	switch op {
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case "==", "===":
		return a == b
	case "!=", "!==":
		return a != b
	}
	return false
}
