package brush

import (
	"image"

	"github.com/gogpu/gg"
)

// Surface is the raster a brush draws on: a pixmap with a drawing context
// bound to it and the canvas background colour.
type Surface struct {
	pm *gg.Pixmap
	dc *gg.Context
	bg Color
}

// NewSurface allocates a width x height surface cleared to bg.
func NewSurface(width, height int, bg Color) *Surface {
	pm := gg.NewPixmap(width, height)
	s := &Surface{
		pm: pm,
		dc: gg.NewContext(width, height, gg.WithPixmap(pm)),
		bg: bg,
	}
	s.Clear()
	return s
}

func (s *Surface) Width() int         { return s.pm.Width() }
func (s *Surface) Height() int        { return s.pm.Height() }
func (s *Surface) Background() Color  { return s.bg }
func (s *Surface) Pixmap() *gg.Pixmap { return s.pm }

// Clear fills the surface with the background colour.
func (s *Surface) Clear() {
	s.pm.Clear(s.bg.gg())
}

// Blit replaces the surface content with src. src must have the same size.
func (s *Surface) Blit(src *gg.Pixmap) {
	copy(s.pm.Data(), src.Data())
}

// CopyTo copies the surface into dst, allocating a new pixmap when dst is nil
// or has a different size. It returns the pixmap written.
func (s *Surface) CopyTo(dst *gg.Pixmap) *gg.Pixmap {
	if dst == nil || dst.Width() != s.pm.Width() || dst.Height() != s.pm.Height() {
		dst = gg.NewPixmap(s.pm.Width(), s.pm.Height())
	}
	copy(dst.Data(), s.pm.Data())
	return dst
}

// Image returns a copy of the surface as an RGBA image.
func (s *Surface) Image() *image.RGBA {
	return s.pm.ToImage()
}

func (s *Surface) context() *gg.Context {
	return s.dc
}
