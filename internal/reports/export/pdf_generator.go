package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator generates the PDF rendition of the report
type PDFGenerator struct {
	options PDFOptions
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string   `json:"page_size"`
	Orientation    string   `json:"orientation"` // portrait, landscape
	Title          string   `json:"title"`
	IncludeDate    bool     `json:"include_date"`
	IncludePageNum bool     `json:"include_page_num"`
	HeaderColor    PDFColor `json:"header_color"`
	AlternateRows  bool     `json:"alternate_rows"`
	AlternateColor PDFColor `json:"alternate_color"`
	FontFamily     string   `json:"font_family"`
	FontSize       float64  `json:"font_size"`
	TitleFontSize  float64  `json:"title_font_size"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "landscape",
		Title:          "Verification Report",
		IncludeDate:    true,
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       7,
		TitleFontSize:  14,
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	return &PDFGenerator{options: options}
}

// Export renders the report table and writes the PDF to w.
func (g *PDFGenerator) Export(w io.Writer, header []string, rows [][]string) error {
	orientation := "P"
	if g.options.Orientation == "landscape" {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", g.options.PageSize, "")
	pdf.SetAutoPageBreak(true, 15)
	if g.options.IncludePageNum {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-12)
			pdf.SetFont(g.options.FontFamily, "I", 8)
			pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()

	pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	pdf.CellFormat(0, 10, g.options.Title, "", 1, "C", false, 0, "")
	if g.options.IncludeDate {
		pdf.SetFont(g.options.FontFamily, "", 9)
		pdf.CellFormat(0, 6, time.Now().Format("02/01/2006"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(header))

	pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
	pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	pdf.SetTextColor(255, 255, 255)
	for _, h := range header {
		pdf.CellFormat(colWidth, 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	pdf.SetTextColor(0, 0, 0)
	for i, row := range rows {
		fill := g.options.AlternateRows && i%2 == 1
		pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		for _, value := range row {
			pdf.CellFormat(colWidth, 6, value, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
