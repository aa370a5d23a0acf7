package render

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Receipt is the printable confirmation of one booking.
type Receipt struct {
	BookingID     string
	Status        string
	BookedAt      time.Time
	UserName      string
	UserEmail     string
	ActivityTitle string
	LocationName  string
	City          string
	StartDate     time.Time
	EndDate       time.Time
	Price         float64
	GeneratedAt   time.Time
}

const receiptDateLayout = "Mon 02 Jan 2006 15:04 MST"

// ReceiptPDF renders a single-page receipt with a QR code that encodes the booking id.
func ReceiptPDF(w io.Writer, receipt *Receipt) error {
	qr, err := qrcode.Encode(receipt.BookingID, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to encode receipt QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "MESHWAR BOOKING RECEIPT")
	pdf.Ln(18)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	top := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, top, 120, 50, "F")

	pdf.SetXY(20, top+6)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "BOOKING")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.SetX(20)
		pdf.Cell(0, 7, tr(label+": "+value))
		pdf.Ln(7)
	}
	line("Booking ID", receipt.BookingID)
	line("Status", receipt.Status)
	line("Booked at", receipt.BookedAt.UTC().Format(receiptDateLayout))
	line("Guest", receipt.UserName)
	line("Email", receipt.UserEmail)

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 145, top, 50, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(top + 58)
	section(pdf, "ACTIVITY")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, tr(receipt.ActivityTitle))
	pdf.Ln(7)
	if receipt.LocationName != "" {
		where := receipt.LocationName
		if receipt.City != "" {
			where += ", " + receipt.City
		}
		pdf.Cell(0, 7, tr(where))
		pdf.Ln(7)
	}
	if !receipt.StartDate.IsZero() {
		pdf.Cell(0, 7, "From: "+receipt.StartDate.UTC().Format(receiptDateLayout))
		pdf.Ln(7)
	}
	if !receipt.EndDate.IsZero() {
		pdf.Cell(0, 7, "Until: "+receipt.EndDate.UTC().Format(receiptDateLayout))
		pdf.Ln(7)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Price: %.2f JOD", receipt.Price))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Present this QR code at the activity for check-in.")

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 280, 195, 280)
	pdf.SetY(283)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Generated "+receipt.GeneratedAt.UTC().Format(receiptDateLayout), "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}
