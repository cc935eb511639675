//go:build !gosseract

package scanning

import (
	"context"
	"fmt"
)

// Gosseract is unavailable without the "gosseract" build tag
type Gosseract struct{}

// NewGosseract reports that this binary was built without libtesseract support
func NewGosseract(language string) (*Gosseract, error) {
	return nil, fmt.Errorf("%w: built without gosseract support (rebuild with -tags gosseract)", ErrEngineUnavailable)
}

func (g *Gosseract) ScanText(ctx context.Context, pngData []byte) (string, error) {
	return "", ErrEngineUnavailable
}

func (g *Gosseract) Close() error {
	return nil
}
