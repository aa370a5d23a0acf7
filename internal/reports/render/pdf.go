package render

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 7.0
)

// PDF renders the report as a landscape A4 table, repeating the header row on every page.
func PDF(w io.Writer, report *Report) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - 2*pdfMargin) / float64(max(len(report.Columns), 1))
	bottom := pageH - pdfMargin - 10

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		for _, col := range report.Columns {
			pdf.CellFormat(colW, pdfRowHeight, fit(pdf, tr(col), colW), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(report.Title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, generatedLine(report))
	pdf.Ln(9)
	header()

	for _, row := range report.Rows {
		if pdf.GetY()+pdfRowHeight > bottom {
			pdf.AddPage()
			header()
		}
		for i := range report.Columns {
			pdf.CellFormat(colW, pdfRowHeight, fit(pdf, tr(cell(row, i)), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(report.Summary) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		for _, line := range report.Summary {
			if pdf.GetY()+6 > bottom {
				pdf.AddPage()
			}
			pdf.Cell(0, 6, tr(line))
			pdf.Ln(6)
		}
	}

	return pdf.Output(w)
}

// fit shortens s with a trailing ellipsis until it fits a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	const padding = 2.0
	if pdf.GetStringWidth(s) <= w-padding {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w-padding {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
