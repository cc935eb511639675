package scanning

import (
	"context"
	"errors"
)

// ErrEngineUnavailable is returned when an OCR engine cannot be used in this build or environment
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Scanner defines the interface for OCR engines
type Scanner interface {
	// ScanText recognizes the text in a PNG image
	ScanText(ctx context.Context, pngData []byte) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
