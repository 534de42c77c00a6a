package gtslaux

import (
	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/gtsl"
)

// Scalar renditions of the math kinds. Vector kinds act on a single
// component so that length is abs and normalize is sign.
var unaryOps = map[gtsl.Kind]func(a float32) float32{
	gtsl.KindOneMinusX: func(a float32) float32 { return 1 - a },
	gtsl.KindOneDivX:   safeDiv1,
	gtsl.KindAbs:       math.Abs,
	gtsl.KindAcos:      func(a float32) float32 { return math.Acos(ms1.Clamp(a, -1, 1)) },
	gtsl.KindAsin:      func(a float32) float32 { return math.Asin(ms1.Clamp(a, -1, 1)) },
	gtsl.KindAtan:      math.Atan,
	gtsl.KindCbrt:      math.Cbrt,
	gtsl.KindCeil:      math.Ceil,
	gtsl.KindCos:       math.Cos,
	gtsl.KindDegrees:   func(a float32) float32 { return a * (180 / math.Pi) },
	gtsl.KindDFdx:      zero,
	gtsl.KindDFdy:      zero,
	gtsl.KindExp:       math.Exp,
	gtsl.KindExp2:      math.Exp2,
	gtsl.KindFloor:     math.Floor,
	gtsl.KindFract:     func(a float32) float32 { return a - math.Floor(a) },
	gtsl.KindFwidth:    zero,
	gtsl.KindInverseSqrt: func(a float32) float32 {
		if a <= 0 {
			return 0
		}
		return 1 / math.Sqrt(a)
	},
	gtsl.KindLength: math.Abs,
	gtsl.KindLog: func(a float32) float32 {
		if a <= 0 {
			return 0
		}
		return math.Log(a)
	},
	gtsl.KindLog2: func(a float32) float32 {
		if a <= 0 {
			return 0
		}
		return math.Log2(a)
	},
	gtsl.KindNegate:    func(a float32) float32 { return -a },
	gtsl.KindNormalize: sign,
	gtsl.KindRadians:   func(a float32) float32 { return a * (math.Pi / 180) },
	gtsl.KindRound:     math.Round,
	gtsl.KindSaturate:  func(a float32) float32 { return ms1.Clamp(a, 0, 1) },
	gtsl.KindSign:      sign,
	gtsl.KindSin:       math.Sin,
	gtsl.KindSqrt: func(a float32) float32 {
		if a < 0 {
			return 0
		}
		return math.Sqrt(a)
	},
	gtsl.KindTan:   math.Tan,
	gtsl.KindTrunc: math.Trunc,
	gtsl.KindAll:   truth,
	gtsl.KindAny:   truth,
	gtsl.KindPow2:  func(a float32) float32 { return a * a },
	gtsl.KindPow3:  func(a float32) float32 { return a * a * a },
	gtsl.KindPow4:  func(a float32) float32 { return a * a * a * a },
}

var binaryOps = map[gtsl.Kind]func(a, b float32) float32{
	gtsl.KindAdd:      func(a, b float32) float32 { return a + b },
	gtsl.KindMultiply: func(a, b float32) float32 { return a * b },
	gtsl.KindSubtract: func(a, b float32) float32 { return a - b },
	gtsl.KindDivide: func(a, b float32) float32 {
		if b == 0 {
			return 0
		}
		return a / b
	},
	gtsl.KindDifference: func(a, b float32) float32 { return math.Abs(a - b) },
	gtsl.KindDistance:   func(a, b float32) float32 { return math.Abs(a - b) },
	gtsl.KindDot:        func(a, b float32) float32 { return a * b },
	gtsl.KindCross:      func(a, b float32) float32 { return 0 },
	gtsl.KindEquals: func(a, b float32) float32 {
		if a == b {
			return 1
		}
		return 0
	},
	gtsl.KindMax: func(a, b float32) float32 { return max(a, b) },
	gtsl.KindMin: func(a, b float32) float32 { return min(a, b) },
	gtsl.KindMod: func(a, b float32) float32 {
		if b == 0 {
			return 0
		}
		return math.Mod(a, b)
	},
	gtsl.KindPower: math.Pow,
	gtsl.KindStep: func(edge, x float32) float32 {
		if x < edge {
			return 0
		}
		return 1
	},
	gtsl.KindReflect: func(i, n float32) float32 { return i - 2*n*i*n },
}

var ternaryOps = map[gtsl.Kind]func(a, b, c float32) float32{
	gtsl.KindClamp: func(x, lo, hi float32) float32 { return max(lo, min(hi, x)) },
	gtsl.KindMix:   func(a, b, t float32) float32 { return a + (b-a)*t },
	gtsl.KindSmoothstep: func(lo, hi, x float32) float32 {
		if lo == hi {
			return 0
		}
		return ms1.SmoothStep(lo, hi, x)
	},
	gtsl.KindRemap: func(x, lo, hi float32) float32 {
		if lo == hi {
			return 0
		}
		return (x - lo) / (hi - lo)
	},
	gtsl.KindRemapClamp: func(x, lo, hi float32) float32 {
		if lo == hi {
			return 0
		}
		return ms1.Clamp((x-lo)/(hi-lo), 0, 1)
	},
	gtsl.KindFaceForward: func(n, i, ng float32) float32 {
		if ng*i < 0 {
			return n
		}
		return -n
	},
	gtsl.KindRefract: func(i, n, eta float32) float32 {
		d := n * i
		k := 1 - eta*eta*(1-d*d)
		if k < 0 {
			return 0
		}
		return eta*i - (eta*d+math.Sqrt(k))*n
	},
}

func zero(float32) float32 { return 0 }

func safeDiv1(a float32) float32 {
	if a == 0 {
		return 0
	}
	return 1 / a
}

func sign(a float32) float32 {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	}
	return 0
}

func truth(a float32) float32 {
	if a != 0 {
		return 1
	}
	return 0
}
