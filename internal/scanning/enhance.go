package scanning

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// minOCRHeight is the height small scans are upscaled to before recognition
const minOCRHeight = 1200

// Enhance prepares a PNG scan for OCR: grayscale, stronger contrast, a light
// sharpen, and upscaling of low resolution images.
func Enhance(pngData []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decoding image for enhancement: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.0)

	if img.Bounds().Dy() < minOCRHeight {
		img = imaging.Resize(img, 0, minOCRHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding enhanced image: %w", err)
	}
	return buf.Bytes(), nil
}
