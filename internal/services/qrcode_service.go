package services

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QRCodeService struct{}

func NewQRCodeService() *QRCodeService {
	return &QRCodeService{}
}

// GenerateBookingQR encodes a booking reference as a PNG QR code. The code
// carries the reference only; it is resolved server-side at check-in.
func (s *QRCodeService) GenerateBookingQR(reference string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	pngBytes, err := qrcode.Encode("travelbook:"+reference, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}
	return pngBytes, nil
}
