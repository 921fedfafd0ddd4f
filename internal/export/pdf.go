// Package export renders a session's forward history to PDF or PNG.
package export

import (
	"fmt"
	"io"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/session"

	"github.com/gogpu/gg"
	"github.com/jung-kurt/gofpdf"
)

// PDF writes the drawing as vector strokes on a single page the size of the
// canvas, one point per raster pixel.
func PDF(w io.Writer, s *session.Session) error {
	width, height := float64(s.Width), float64(s.Height)
	orientation := "P"
	if width > height {
		orientation = "L"
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	bg := s.Background
	p.SetFillColor(int(bg.R()), int(bg.G()), int(bg.B()))
	p.Rect(0, 0, width, height, "F")

	for i, r := range s.Forward {
		if r.Type == brush.StepEmpty || r.Brush == nil || len(r.Points) == 0 {
			continue
		}
		if err := pdfStep(p, r, bg); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfStep(p *gofpdf.Fpdf, r session.Record, bg brush.Color) error {
	b := r.Brush
	style, ok := brush.Lookup(b.Kind)
	if !ok {
		return fmt.Errorf("unknown brush %v", b.Kind)
	}
	c, alpha := b.Color, float64(b.Color.A())/255*float64(b.Alpha)/255
	if style.Erase {
		c, alpha = bg, 1
	}
	p.SetAlpha(alpha, "Normal")
	defer p.SetAlpha(1, "Normal")

	size := float64(b.Size)
	if len(r.Points) == 1 {
		pt := r.Points[0]
		p.SetFillColor(int(c.R()), int(c.G()), int(c.B()))
		p.Circle(float64(pt.X), float64(pt.Y), size/2, "F")
		return p.Error()
	}

	p.SetDrawColor(int(c.R()), int(c.G()), int(c.B()))
	p.SetLineWidth(size)
	p.SetLineCapStyle(capStyle(style.Cap))
	p.SetLineJoinStyle(joinStyle(style.Join))
	p.MoveTo(float64(r.Points[0].X), float64(r.Points[0].Y))
	for _, pt := range r.Points[1:] {
		p.LineTo(float64(pt.X), float64(pt.Y))
	}
	p.DrawPath("D")
	return p.Error()
}

func capStyle(c gg.LineCap) string {
	switch c {
	case gg.LineCapRound:
		return "round"
	case gg.LineCapSquare:
		return "square"
	}
	return "butt"
}

func joinStyle(j gg.LineJoin) string {
	switch j {
	case gg.LineJoinRound:
		return "round"
	case gg.LineJoinBevel:
		return "bevel"
	}
	return "miter"
}
