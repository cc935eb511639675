package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Acquirer turns invoice images into raw OCR text. It never returns an
// error: any failure is logged and yields empty text, so parsing always
// has something to work with.
type Acquirer struct {
	scanner Scanner
	enhance bool
}

// AcquirerOption configures an Acquirer
type AcquirerOption func(*Acquirer)

// WithEnhancement runs Enhance on every image before it reaches the scanner
func WithEnhancement(enabled bool) AcquirerOption {
	return func(a *Acquirer) { a.enhance = enabled }
}

// NewAcquirer creates an Acquirer around an OCR engine
func NewAcquirer(scanner Scanner, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{scanner: scanner}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExtractText reads the image at imagePath and returns the recognized text,
// or "" if anything goes wrong.
func (a *Acquirer) ExtractText(ctx context.Context, imagePath string) string {
	slog.Info("Performing OCR on image", "path", imagePath)

	data, err := os.ReadFile(imagePath)
	if err != nil {
		slog.Error("Failed to extract text from image", "path", imagePath, "error", err)
		return ""
	}

	text, err := a.scan(ctx, data, "")
	if err != nil {
		slog.Error("Failed to extract text from image", "path", imagePath, "error", err)
		return ""
	}

	slog.Debug("Extracted text", "path", imagePath, "text", text)
	return text
}

// ExtractTextFromBytes is ExtractText for an image already in memory.
// An empty contentType is sniffed from the data.
func (a *Acquirer) ExtractTextFromBytes(ctx context.Context, data []byte, contentType string) string {
	text, err := a.scan(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to extract text from image",
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return ""
	}

	slog.Debug("Extracted text", "content_type", contentType, "text", text)
	return text
}

func (a *Acquirer) scan(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}

	pngData, _, err := prepareImageData(data, contentType)
	if err != nil {
		return "", err
	}

	if a.enhance {
		pngData, err = Enhance(pngData)
		if err != nil {
			return "", err
		}
	}

	text, err := a.scanner.ScanText(ctx, pngData)
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}

// Close closes the underlying scanner
func (a *Acquirer) Close() error {
	return a.scanner.Close()
}
