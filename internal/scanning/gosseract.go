//go:build gosseract

package scanning

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract implements the Scanner interface with the Tesseract C API.
// Requires libtesseract and the "gosseract" build tag.
type Gosseract struct {
	language string
}

// NewGosseract creates a new Gosseract Scanner instance
func NewGosseract(language string) (*Gosseract, error) {
	if language == "" {
		language = "eng"
	}
	return &Gosseract{language: language}, nil
}

// ScanText recognizes the image with a fresh client; gosseract clients are not goroutine-safe
func (g *Gosseract) ScanText(ctx context.Context, pngData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(g.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are per scan
func (g *Gosseract) Close() error {
	return nil
}
