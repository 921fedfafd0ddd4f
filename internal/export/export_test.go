package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/session"
)

func sample() *session.Session {
	s := session.New(60, 40, brush.White)
	red := &session.BrushRecord{Kind: brush.Pen, Color: brush.Red, Size: 8, Alpha: 255}
	marker := &session.BrushRecord{Kind: brush.Marker, Color: brush.Blue, Size: 4, Alpha: 128}
	s.Forward = []session.Record{
		{Type: brush.StepPoint, Points: []gesture.Point{{X: 10, Y: 10}}, Brush: red},
		{Type: brush.StepScribble, Points: []gesture.Point{{X: 20, Y: 30}, {X: 40, Y: 30}, {X: 50, Y: 5}}, Brush: marker},
		{Type: brush.StepEmpty},
	}
	// undone steps are not exported
	s.Redo = []session.Record{
		{Type: brush.StepPoint, Points: []gesture.Point{{X: 50, Y: 35}}, Brush: red},
	}
	return s
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output starts with %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Fatalf("bounds %v", b)
	}
	if r, g, _, _ := img.At(10, 10).RGBA(); r>>8 < 200 || g>>8 > 60 {
		t.Errorf("point pixel = %v, want red", img.At(10, 10))
	}
	if r, g, b, _ := img.At(50, 35).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("redo step rendered at 50,35: %v", img.At(50, 35))
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.pdf", "out.PNG"} {
		p := filepath.Join(dir, name)
		if err := File(p, sample()); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("%s: stat %v", name, err)
		}
	}
	if err := File(filepath.Join(dir, "out.svg"), sample()); err == nil {
		t.Fatal("svg export accepted")
	}
}
