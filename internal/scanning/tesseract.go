package scanning

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract implements the Scanner interface by running the tesseract binary
type Tesseract struct {
	path     string
	language string
}

// NewTesseract resolves the tesseract executable once. path may be a bare
// command name looked up on PATH or an absolute path.
func NewTesseract(path string, language string) (*Tesseract, error) {
	if path == "" {
		path = "tesseract"
	}
	if language == "" {
		language = "eng"
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: locating tesseract %q: %v", ErrEngineUnavailable, path, err)
	}

	return &Tesseract{
		path:     resolved,
		language: language,
	}, nil
}

// ScanText pipes the image through `tesseract stdin stdout`
func (t *Tesseract) ScanText(ctx context.Context, pngData []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.path,
		"stdin", "stdout",
		"-l", t.language,
		"--psm", "3", // Fully automatic page segmentation
	)
	cmd.Stdin = bytes.NewReader(pngData)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Close is a no-op; every scan runs its own process
func (t *Tesseract) Close() error {
	return nil
}
