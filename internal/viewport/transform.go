// Package viewport maps the raster onto the presentation surface with a
// clamped pan and zoom.
package viewport

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Transform is a scale plus translation from raster to screen space. Scale
// stays within [MinScale, MaxScale] and the translation keeps the raster
// within half a viewport of the centre on each axis. It is safe for
// concurrent use.
type Transform struct {
	mu sync.RWMutex

	rw, rh float64
	vw, vh float64

	fit      float64
	minScale float64
	maxScale float64

	scale  float64
	tx, ty float64
}

// New creates a transform showing the raster at its best-fit scale, centred.
func New(rasterW, rasterH, viewW, viewH int) *Transform {
	t := &Transform{}
	t.mu.Lock()
	t.resize(rasterW, rasterH, viewW, viewH)
	t.reset()
	t.mu.Unlock()
	return t
}

func (t *Transform) resize(rasterW, rasterH, viewW, viewH int) {
	t.rw, t.rh = float64(max(rasterW, 1)), float64(max(rasterH, 1))
	t.vw, t.vh = float64(max(viewW, 1)), float64(max(viewH, 1))
	t.fit = math.Min(1, math.Min(t.vw/t.rw, t.vh/t.rh))
	t.minScale = t.fit * 0.75
	t.maxScale = math.Max(1, t.fit*2.75)
}

func (t *Transform) reset() {
	t.scale = t.fit
	t.tx = (t.vw - t.rw*t.scale) / 2
	t.ty = (t.vh - t.rh*t.scale) / 2
	t.clamp()
}

func (t *Transform) clamp() {
	t.scale = math.Max(t.minScale, math.Min(t.maxScale, t.scale))
	t.tx = clampAxis(t.tx, t.rw*t.scale, t.vw)
	t.ty = clampAxis(t.ty, t.rh*t.scale, t.vh)
}

// clampAxis keeps the far edge of content at or past the viewport centre and
// its near edge at or before it.
func clampAxis(offset, size, view float64) float64 {
	lo, hi := -size+view/2, view/2
	return math.Max(lo, math.Min(hi, offset))
}

// Resize changes the raster or viewport size. The current scale and offset
// are kept where the new bounds allow.
func (t *Transform) Resize(rasterW, rasterH, viewW, viewH int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sameRaster := float64(rasterW) == t.rw && float64(rasterH) == t.rh
	t.resize(rasterW, rasterH, viewW, viewH)
	if !sameRaster {
		t.reset()
		return
	}
	t.clamp()
}

// Reset returns to the best-fit scale, centred.
func (t *Transform) Reset() {
	t.mu.Lock()
	t.reset()
	t.mu.Unlock()
}

// Set replaces the scale and offset, clamping both.
func (t *Transform) Set(scale, tx, ty float64) {
	t.mu.Lock()
	t.scale, t.tx, t.ty = scale, tx, ty
	t.clamp()
	t.mu.Unlock()
}

// Pan moves the raster by dx, dy screen pixels.
func (t *Transform) Pan(dx, dy float64) {
	t.mu.Lock()
	t.tx += dx
	t.ty += dy
	t.clamp()
	t.mu.Unlock()
}

// ZoomAt multiplies the scale by factor keeping the raster point under the
// screen point x, y fixed, as far as the bounds allow.
func (t *Transform) ZoomAt(factor, x, y float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.scale
	t.scale = math.Max(t.minScale, math.Min(t.maxScale, old*factor))
	k := t.scale / old
	t.tx = x - (x-t.tx)*k
	t.ty = y - (y-t.ty)*k
	t.clamp()
}

// ToRaster maps a screen point to raster coordinates.
func (t *Transform) ToRaster(x, y float64) (float64, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return (x - t.tx) / t.scale, (y - t.ty) / t.scale
}

// ToScreen maps a raster point to screen coordinates.
func (t *Transform) ToScreen(x, y float64) (float64, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return x*t.scale + t.tx, y*t.scale + t.ty
}

func (t *Transform) Scale() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scale
}

func (t *Transform) Offset() (float64, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tx, t.ty
}

// Bounds returns the allowed scale range.
func (t *Transform) Bounds() (minScale, maxScale float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minScale, t.maxScale
}

// Matrix returns the raster-to-screen affine matrix.
func (t *Transform) Matrix() f64.Aff3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return f64.Aff3{t.scale, 0, t.tx, 0, t.scale, t.ty}
}

// Present fills dst with bg and draws src through the transform. Zoomed-in
// rasters are sampled nearest-neighbour so individual pixels stay sharp.
func (t *Transform) Present(dst draw.Image, src image.Image, bg color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	m := t.Matrix()
	var interp draw.Transformer = draw.BiLinear
	if m[0] >= 1 {
		interp = draw.NearestNeighbor
	}
	interp.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
}
