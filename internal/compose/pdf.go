package compose

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pdfFont     = "Helvetica"
	pdfSize     = 10.0
	pdfLineHigh = 5.0
)

// PDF lays markdown out on A4 pages using the core fonts.
func PDF(title, markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfSize)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	r := &pdfRenderer{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, fmt.Errorf("laying out PDF: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string
	bold   bool
	italic bool
	depth  int
	counts []int
}

func (r *pdfRenderer) setFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(pdfFont, style, pdfSize)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(3)
			pt := 11.0
			switch node.Level {
			case 1:
				pt = 16
			case 2:
				pt = 13
			}
			r.pdf.SetFont(pdfFont, "B", pt)
		} else {
			r.pdf.Ln(headingGap(node.Level))
			r.setFont()
		}
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(pdfLineHigh + 2)
		}
	case *ast.TextBlock:
		if !entering {
			r.pdf.Ln(pdfLineHigh)
		}
	case *ast.Text:
		if entering {
			r.write(string(node.Segment.Value(r.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				r.write(" ")
			}
		}
	case *ast.String:
		if entering {
			r.write(string(node.Value))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.setFont()
	case *ast.List:
		if entering {
			r.depth++
			r.counts = append(r.counts, node.Start)
		} else {
			r.depth--
			r.counts = r.counts[:len(r.counts)-1]
			if r.depth == 0 {
				r.pdf.Ln(2)
			}
		}
	case *ast.ListItem:
		if entering {
			r.pdf.SetX(15 + float64(r.depth)*5)
			r.write(r.bullet(node))
		}
	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) bullet(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "- "
	}
	i := len(r.counts) - 1
	n := r.counts[i]
	r.counts[i]++
	return fmt.Sprintf("%d. ", n)
}

func (r *pdfRenderer) write(s string) {
	r.pdf.Write(pdfLineHigh, r.tr(s))
}

func headingGap(level int) float64 {
	if level == 1 {
		return 9
	}
	return 7
}
