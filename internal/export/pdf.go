package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/drawing"
	"github.com/emrgen/manga/internal/manga"
)

// B5 in points, the usual tankobon trim size.
const (
	DefaultPageWidth  = 515.91
	DefaultPageHeight = 728.50
)

// PDFOptions controls PDF export. Units are points.
//
// Panel and bubble geometry is stored in percent of the page and of the
// panel, path coordinates in panel units where the panel spans 100x100.
type PDFOptions struct {
	PageWidth  float64
	PageHeight float64
	PageTitles bool
	Pages      []int // page numbers to export, all when empty
}

type rgb struct{ R, G, B int }

var (
	black = rgb{0, 0, 0}
	white = rgb{255, 255, 255}
)

// ProjectPDF renders the project into a multi-page PDF written to w.
func ProjectPDF(w io.Writer, project *manga.Project, opt PDFOptions) error {
	if project == nil {
		return fmt.Errorf("project is nil")
	}

	pageW, pageH := opt.PageWidth, opt.PageHeight
	if pageW <= 0 || pageH <= 0 {
		pageW, pageH = DefaultPageWidth, DefaultPageHeight
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetTitle(project.Title, true)
	pdf.SetAuthor(project.AuthorName, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	wanted := make(map[int]bool, len(opt.Pages))
	for _, n := range opt.Pages {
		wanted[n] = true
	}

	for _, page := range project.Pages {
		if len(wanted) > 0 && !wanted[page.PageNumber] {
			continue
		}
		pdf.AddPage()

		if c, ok := parseColor(page.BackgroundColor); ok {
			setFillColor(pdf, c)
			pdf.Rect(0, 0, pageW, pageH, "F")
		}

		if opt.PageTitles && page.Title != "" {
			setTextColor(pdf, black)
			pdf.SetFont("Helvetica", "", 8)
			pdf.Text(8, 12, tr(page.Title))
		}

		for _, panel := range page.Panels {
			box := drawing.Rect{
				X: panel.X / 100 * pageW,
				Y: panel.Y / 100 * pageH,
				W: panel.Width / 100 * pageW,
				H: panel.Height / 100 * pageH,
			}
			drawPanel(pdf, tr, page.ID, panel, box)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ProjectPDFFile renders the project into a PDF file, creating its directory.
func ProjectPDFFile(path string, project *manga.Project, opt PDFOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ProjectPDF(f, project, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func drawPanel(pdf *gofpdf.Fpdf, tr func(string) string, pageID string, panel manga.Panel, box drawing.Rect) {
	setDrawColor(pdf, black)
	pdf.SetLineWidth(1)
	pdf.Rect(box.X, box.Y, box.W, box.H, "D")

	pdf.ClipRect(box.X, box.Y, box.W, box.H, false)
	defer pdf.ClipEnd()

	for _, p := range panel.Paths {
		path, err := drawing.ParseDescriptor(p.D)
		if err != nil {
			logrus.Warnf("skipping path %s on page %s panel %s: %v", p.ID, pageID, panel.ID, err)
			continue
		}
		drawPath(pdf, p, path, box)
	}

	for _, b := range panel.Bubbles {
		drawBubble(pdf, tr, b, box)
	}
}

func drawPath(pdf *gofpdf.Fpdf, p manga.DrawingPath, path *drawing.Path, box drawing.Rect) {
	c, ok := parseColor(p.Stroke)
	if !ok {
		c = black
	}
	if p.Tool == manga.ToolEraser {
		c = white
	}
	setDrawColor(pdf, c)

	width := p.StrokeWidth
	if width <= 0 {
		width = 1
	}
	pdf.SetLineWidth(width * box.W / 100)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	sx, sy := box.W/100, box.H/100
	for _, cmd := range path.Cmds {
		x, y := box.X+cmd.Pt.X*sx, box.Y+cmd.Pt.Y*sy
		if cmd.Op == drawing.MoveTo {
			pdf.MoveTo(x, y)
		} else {
			pdf.LineTo(x, y)
		}
	}
	pdf.DrawPath("D")
}

func drawBubble(pdf *gofpdf.Fpdf, tr func(string) string, b manga.TextBubble, box drawing.Rect) {
	r := drawing.Rect{
		X: box.X + b.X/100*box.W,
		Y: box.Y + b.Y/100*box.H,
		W: b.Width / 100 * box.W,
		H: b.Height / 100 * box.H,
	}

	fill, ok := parseColor(b.BackgroundColor)
	if !ok {
		fill = white
	}
	setFillColor(pdf, fill)
	setDrawColor(pdf, black)
	pdf.SetLineWidth(0.8)
	if b.Style == manga.BubbleWhisper {
		pdf.SetDashPattern([]float64{2, 2}, 0)
		defer pdf.SetDashPattern([]float64{}, 0)
	}

	switch b.Style {
	case manga.BubbleThought, manga.BubbleSpeech, "":
		pdf.Ellipse(r.X+r.W/2, r.Y+r.H/2, r.W/2, r.H/2, 0, "FD")
	default:
		pdf.Rect(r.X, r.Y, r.W, r.H, "FD")
	}

	size := b.FontSize
	if size <= 0 {
		size = 10
	}
	text, ok := parseColor(b.Color)
	if !ok {
		text = black
	}
	setTextColor(pdf, text)
	pdf.SetFont("Helvetica", "", size)
	pdf.SetXY(r.X, r.Y+r.H/2-size*0.6)
	pdf.MultiCell(r.W, size*1.2, tr(b.Text), "", "C", false)
}

// parseColor reads #rgb and #rrggbb colors.
func parseColor(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, false
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

func setDrawColor(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetDrawColor(c.R, c.G, c.B)
}

func setFillColor(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.R, c.G, c.B)
}

func setTextColor(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.R, c.G, c.B)
}
