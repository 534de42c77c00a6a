package gtsl

import "strconv"

// ParseHexColor parses "#rgb" or "#rrggbb" colors. The leading '#' is optional.
func ParseHexColor(s string) (rgb [3]uint8, ok bool) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return rgb, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb, false
	}
	return [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

// PackedColor returns the color as a 0xRRGGBB integer.
func PackedColor(rgb [3]uint8) int {
	return int(rgb[0])<<16 | int(rgb[1])<<8 | int(rgb[2])
}
