package paramblock

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA color with float components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// String formats c as "r g b a".
func (c Color) String() string {
	return strings.Join([]string{
		formatFloat32(c.R), formatFloat32(c.G), formatFloat32(c.B), formatFloat32(c.A),
	}, " ")
}

// ParseColor parses space separated components. At least minParts and at
// most four components are accepted; a missing alpha is 1.
func ParseColor(s string, minParts int) (Color, bool) {
	fields := strings.Fields(s)
	if len(fields) < minParts || len(fields) > 4 {
		return Color{}, false
	}
	comps := [4]float32{0, 0, 0, 1}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return Color{}, false
		}
		comps[i] = float32(v)
	}
	return Color{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, true
}

// Components returns r, g, b, a.
func (c Color) Components() []float32 { return []float32{c.R, c.G, c.B, c.A} }

func formatFloat32(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) }

// UUID is a 128-bit identifier in canonical 8-4-4-4-12 hex form.
type UUID [16]byte

// String formats u canonically.
func (u UUID) String() string {
	var b [36]byte
	hex.Encode(b[0:8], u[0:4])
	b[8] = '-'
	hex.Encode(b[9:13], u[4:6])
	b[13] = '-'
	hex.Encode(b[14:18], u[6:8])
	b[18] = '-'
	hex.Encode(b[19:23], u[8:10])
	b[23] = '-'
	hex.Encode(b[24:], u[10:])
	return string(b[:])
}

// ParseUUID parses the canonical form.
func ParseUUID(s string) (UUID, error) {
	var u UUID
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return u, fmt.Errorf("uuid %q: bad format", s)
	}
	compact := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:]
	if _, err := hex.Decode(u[:], []byte(compact)); err != nil {
		return u, fmt.Errorf("uuid %q: %w", s, err)
	}
	return u, nil
}
