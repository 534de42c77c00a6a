package gtslaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	math "github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/glgl/math/ms3"
)

// RGBA converts a preview color to an opaque 8 bit color. Channels are clamped to [0,1].
func RGBA(c ms3.Vec) color.RGBA {
	c = ms3.ClampElem(c, ms3.Vec{}, ms3.Vec{X: 1, Y: 1, Z: 1})
	return color.RGBA{R: uint8(c.X*255 + 0.5), G: uint8(c.Y*255 + 0.5), B: uint8(c.Z*255 + 0.5), A: 255}
}

// Hex formats a preview color as a #rrggbb string.
func Hex(c ms3.Vec) string {
	rgba := RGBA(c)
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// Gradient returns a function mapping a scalar in [lo,hi] to a color
// interpolated in HSV space between c0 and c1. Values outside the range
// saturate and NaN maps to red.
func Gradient(lo, hi float32, c0, c1 ms3.Vec) func(v float32) ms3.Vec {
	h0, s0, v0 := rgbToHSV(c0.X, c0.Y, c0.Z)
	h1, s1, v1 := rgbToHSV(c1.X, c1.Y, c1.Z)
	span := hi - lo
	return func(v float32) ms3.Vec {
		if math.IsNaN(v) {
			return ms3.Vec{X: 1}
		}
		var blend float32
		if span != 0 {
			blend = ms1.Clamp((v-lo)/span, 0, 1)
		}
		r, g, b := hsvToRGB(interpHSV(h0, s0, v0, h1, s1, v1, blend))
		return ms3.Vec{X: r, Y: g, Z: b}
	}
}

// WriteSwatches encodes a PNG strip with one size×size square per node id,
// in order, using the node's preview color. Nodes without a preview are
// drawn transparent.
func WriteSwatches(w io.Writer, d Display, ids []string, size int) error {
	if size <= 0 {
		return errors.New("swatch size must be positive")
	} else if len(ids) == 0 {
		return errors.New("no swatches to write")
	}
	img := image.NewRGBA(image.Rect(0, 0, size*len(ids), size))
	for i, id := range ids {
		c, ok := d.Color(id)
		if !ok {
			continue
		}
		rgba := RGBA(c)
		for x := i * size; x < (i+1)*size; x++ {
			for y := 0; y < size; y++ {
				img.SetRGBA(x, y, rgba)
			}
		}
	}
	return png.Encode(w, img)
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

// hsvToRGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to RGB floating point values on the range of 0.0 to 1.0
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)
	switch {
	case h <= 1.0/6:
		r, g, b = c, x, 0
	case h <= 2.0/6:
		r, g, b = x, c, 0
	case h <= 3.0/6:
		r, g, b = 0, c, x
	case h <= 4.0/6:
		r, g, b = 0, x, c
	case h <= 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// rgbToHSV converts red, green, and blue floating point values on the range
// 0.0 to 1.0 to hue, saturation and brightness values on the range 0.0 to 1.0
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return h, s, v
}
