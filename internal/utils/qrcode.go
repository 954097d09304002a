package utils

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCodePNG renders a signed admission payload into a PNG suitable
// for embedding in a ticket layout. The payload is base64url-safe, so it fits
// a QR symbol without escaping.
func GenerateQRCodePNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	return png, nil
}
