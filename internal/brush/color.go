package brush

import (
	"image/color"

	"github.com/gogpu/gg"
)

// Color is a packed 0xAARRGGBB colour, the form stored in session files.
type Color uint32

// Common colours.
const (
	Black       Color = 0xFF000000
	White       Color = 0xFFFFFFFF
	Red         Color = 0xFFFF0000
	Green       Color = 0xFF00FF00
	Blue        Color = 0xFF0000FF
	Yellow      Color = 0xFFFFFF00
	Transparent Color = 0x00000000
)

// ARGB packs 8-bit channels.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// FromColor converts any colour.Color (non-premultiplied result).
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return ARGB(n.A, n.R, n.G, n.B)
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// NRGBA implements color conversion for image code.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// Int32 returns the signed representation used by the session format.
func (c Color) Int32() int32 {
	return int32(uint32(c))
}

// withAlpha scales the colour's alpha channel by alpha/255.
func (c Color) withAlpha(alpha uint8) gg.RGBA {
	a := float64(c.A()) / 255 * float64(alpha) / 255
	return gg.RGBA2(float64(c.R())/255, float64(c.G())/255, float64(c.B())/255, a)
}

func (c Color) gg() gg.RGBA {
	return c.withAlpha(0xFF)
}
