package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 277.0
	rowHeight  = 6.0
	headHeight = 7.0
)

// WritePDF renders a report table as a landscape A4 document.
func WritePDF(w io.Writer, t Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(t.Title, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, t.Title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 8, fmt.Sprintf("Period: %s", t.Period))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(40, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, pair := range t.Summary {
		pdf.CellFormat(60, rowHeight, pair.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, rowHeight, pair.Value, "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range t.Sections {
		writeSection(pdf, section)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("export: render pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeSection(pdf *gofpdf.Fpdf, section Section) {
	if len(section.Columns) == 0 {
		return
	}
	width := pageWidth / float64(len(section.Columns))

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(40, 8, section.Name)
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 8)
	for _, col := range section.Columns {
		pdf.CellFormat(width, headHeight, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	if len(section.Rows) == 0 {
		pdf.CellFormat(pageWidth, rowHeight, "No records", "1", 1, "C", false, 0, "")
	}
	for _, row := range section.Rows {
		for i, cell := range row {
			align := "L"
			if i >= len(row)-3 {
				align = "R"
			}
			pdf.CellFormat(width, rowHeight, fit(pdf, cell, width), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// fit trims text that would overflow a cell of width mm.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width-2 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width-2 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
