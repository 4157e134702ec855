package services

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"go-travel-webapp/internal/models"

	"github.com/jung-kurt/gofpdf"
)

type PDFService struct {
	qrService *QRCodeService
}

func NewPDFService(qrService *QRCodeService) *PDFService {
	return &PDFService{qrService: qrService}
}

// GenerateItineraryPDF renders a booking confirmation with the itinerary
// details and an embedded check-in QR code.
func (s *PDFService) GenerateItineraryPDF(booking *models.Booking, user *models.User) ([]byte, error) {
	if booking == nil {
		return nil, fmt.Errorf("booking cannot be nil")
	}
	log.Printf("PDFService: Generating itinerary for booking %s", booking.Reference)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 123, 255)
	pdf.Cell(0, 12, "TravelBook")
	pdf.Ln(14)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Booking Confirmation")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	writeRow := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	writeRow("Reference:", booking.Reference)
	if user != nil {
		writeRow("Traveler:", user.GetDisplayName())
	}
	writeRow("Trip:", booking.Title)
	writeRow("Type:", booking.Kind)
	if booking.Origin != nil && *booking.Origin != "" {
		writeRow("From:", *booking.Origin)
	}
	if booking.Destination != nil && *booking.Destination != "" {
		writeRow("To:", *booking.Destination)
	}
	if booking.StartDate != nil {
		writeRow("Start:", booking.StartDate.Format("02.01.2006"))
	}
	if booking.EndDate != nil {
		writeRow("End:", booking.EndDate.Format("02.01.2006"))
	}
	writeRow("Travelers:", fmt.Sprintf("%d", booking.Travelers))
	writeRow("Price:", fmt.Sprintf("%.2f %s", booking.Price, booking.Currency))
	writeRow("Status:", booking.Status)

	// Check-in QR code
	if qrPNG, err := s.qrService.GenerateBookingQR(booking.Reference, 256); err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("booking_qr", opts, bytes.NewReader(qrPNG))
		pdf.Ln(6)
		pdf.ImageOptions("booking_qr", 15, pdf.GetY(), 40, 40, false, opts, 0, "")
		pdf.SetY(pdf.GetY() + 44)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "Present this code at check-in")
		pdf.Ln(10)
	} else {
		log.Printf("PDFService: QR generation failed for %s: %v", booking.Reference, err)
	}

	// Footer
	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.Cell(0, 5, fmt.Sprintf("Generated %s - TravelBook", time.Now().Format("2006-01-02 15:04")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
