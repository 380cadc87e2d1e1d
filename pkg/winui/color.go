package winui

// Color is an ARGB window background color.
type Color struct {
	A, R, G, B uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color { return Color{A: 0xff, R: r, G: g, B: b} }

// ARGB returns a color with explicit alpha.
func ARGB(a, r, g, b uint8) Color { return Color{A: a, R: r, G: g, B: b} }

// Packed returns the color as a single ARGB word.
func (c Color) Packed() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// FromPacked rebuilds a Color from an ARGB word.
func FromPacked(argb uint32) Color {
	return Color{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}
}

// Common colors.
var (
	White = RGB(0xff, 0xff, 0xff)
	Black = RGB(0x00, 0x00, 0x00)
)
