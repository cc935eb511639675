package scanning

import (
	"fmt"
	"log/slog"
)

// Engine names accepted by NewEngine
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
	EngineAzure     = "azure"
	EngineGemini    = "gemini"
	EngineOllama    = "ollama"
)

// EngineConfig holds the settings for every supported OCR engine.
// Only the fields of the selected engine are read.
type EngineConfig struct {
	Name string

	TesseractPath string
	Language      string

	AzureEndpoint string
	AzureKey      string

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string
}

// NewEngine creates the OCR engine named in cfg
func NewEngine(cfg EngineConfig) (Scanner, error) {
	var (
		scanner Scanner
		err     error
	)
	if cfg.Name == "" {
		cfg.Name = EngineTesseract
	}

	switch cfg.Name {
	case EngineTesseract:
		slog.Info("Initializing Tesseract scanner...", "path", cfg.TesseractPath, "language", cfg.Language)
		var t *Tesseract
		t, err = NewTesseract(cfg.TesseractPath, cfg.Language)
		scanner = t
	case EngineGosseract:
		slog.Info("Initializing Gosseract scanner...", "language", cfg.Language)
		var g *Gosseract
		g, err = NewGosseract(cfg.Language)
		scanner = g
	case EngineAzure:
		slog.Info("Initializing Azure scanner...", "endpoint", cfg.AzureEndpoint)
		var a *Azure
		a, err = NewAzure(cfg.AzureEndpoint, cfg.AzureKey)
		scanner = a
	case EngineGemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini api key is required")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.GeminiModel)
		var g *Gemini
		g, err = NewGemini(cfg.GeminiKey, cfg.GeminiModel)
		scanner = g
	case EngineOllama:
		slog.Info("Initializing Ollama scanner...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		var o *Ollama
		o, err = NewOllama(cfg.OllamaURL, cfg.OllamaModel)
		scanner = o
	default:
		return nil, fmt.Errorf("unknown ocr engine %q (valid: tesseract, gosseract, azure, gemini, ollama)", cfg.Name)
	}

	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", cfg.Name, err)
	}
	return scanner, nil
}
