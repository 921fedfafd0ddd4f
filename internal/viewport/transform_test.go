package viewport

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func TestBounds(t *testing.T) {
	tests := []struct {
		name           string
		rw, rh, vw, vh int
		min, max       float64
	}{
		{"raster fits", 100, 100, 400, 300, 0.75, 2.75},
		{"raster larger", 1000, 500, 500, 500, 0.375, 1.375},
		{"tiny view", 1000, 1000, 100, 100, 0.075, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.rw, tt.rh, tt.vw, tt.vh)
			lo, hi := tr.Bounds()
			if math.Abs(lo-tt.min) > eps || math.Abs(hi-tt.max) > eps {
				t.Fatalf("bounds = [%v, %v], want [%v, %v]", lo, hi, tt.min, tt.max)
			}
		})
	}
}

func TestNewCentres(t *testing.T) {
	tr := New(200, 100, 400, 400)
	if tr.Scale() != 1 {
		t.Fatalf("scale = %v", tr.Scale())
	}
	x, y := tr.Offset()
	if x != 100 || y != 150 {
		t.Fatalf("offset = %v,%v", x, y)
	}
}

func TestClampHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := New(640, 480, 800, 600)
	lo, hi := tr.Bounds()
	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			tr.Pan(rng.Float64()*2000-1000, rng.Float64()*2000-1000)
		case 1:
			tr.ZoomAt(rng.Float64()*4, rng.Float64()*800, rng.Float64()*600)
		case 2:
			tr.Set(rng.Float64()*10-2, rng.Float64()*4000-2000, rng.Float64()*4000-2000)
		}
		s := tr.Scale()
		if s < lo-eps || s > hi+eps {
			t.Fatalf("op %d: scale %v outside [%v, %v]", i, s, lo, hi)
		}
		x, y := tr.Offset()
		if x > 400+eps || x+640*s < 400-eps {
			t.Fatalf("op %d: x offset %v lost the raster (scale %v)", i, x, s)
		}
		if y > 300+eps || y+480*s < 300-eps {
			t.Fatalf("op %d: y offset %v lost the raster (scale %v)", i, y, s)
		}
	}
}

func TestZoomKeepsFocus(t *testing.T) {
	tr := New(100, 100, 200, 200)
	rx, ry := tr.ToRaster(80, 120)
	tr.ZoomAt(2, 80, 120)
	if tr.Scale() != 2 {
		t.Fatalf("scale = %v", tr.Scale())
	}
	x, y := tr.ToScreen(rx, ry)
	if math.Abs(x-80) > eps || math.Abs(y-120) > eps {
		t.Fatalf("focus moved to %v,%v", x, y)
	}
}

func TestRoundTripPoints(t *testing.T) {
	tr := New(300, 200, 320, 240)
	tr.ZoomAt(1.7, 10, 20)
	tr.Pan(-15, 7)
	for _, p := range [][2]float64{{0, 0}, {12.5, 99}, {299, 199}} {
		sx, sy := tr.ToScreen(p[0], p[1])
		x, y := tr.ToRaster(sx, sy)
		if math.Abs(x-p[0]) > 1e-6 || math.Abs(y-p[1]) > 1e-6 {
			t.Errorf("round trip %v -> %v,%v", p, x, y)
		}
	}
}

func TestPresent(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	red := color.RGBA{255, 0, 0, 255}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.SetRGBA(x, y, red)
		}
	}
	tr := New(10, 10, 40, 40)
	tr.ZoomAt(2, 20, 20)
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	tr.Present(dst, src, color.White)

	if got := dst.RGBAAt(20, 20); got != red {
		t.Errorf("centre = %v, want red", got)
	}
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner = %v, want background", got)
	}
}
