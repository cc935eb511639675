// Package config resolves command line flags, environment variables, an
// optional .env file and an optional YAML config file into plain values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffyaml"

	"github.com/zombor/invoice-scanner/internal/scanning"
)

// EnvPrefix is prepended to every flag name to form its environment variable,
// e.g. --tesseract-lang is INVOICE_SCANNER_TESSERACT_LANG.
const EnvPrefix = "INVOICE_SCANNER"

// Common holds the settings shared by every binary
type Common struct {
	ConfigFile *string
	LogLevel   *string
	Enhance    *bool

	engine        *string
	tesseractPath *string
	language      *string
	azureEndpoint *string
	azureKey      *string
	geminiKey     *string
	geminiModel   *string
	ollamaURL     *string
	ollamaModel   *string
}

// RegisterCommon adds the logging, config file and OCR engine flags to fs
func RegisterCommon(fs *ff.FlagSet) *Common {
	return &Common{
		ConfigFile: fs.StringLong("config", "", "YAML config file (optional)"),
		LogLevel:   fs.StringLong("log-level", "info", "Log level: debug, info, warn or error"),
		Enhance:    fs.BoolLong("enhance", "Grayscale, sharpen and upscale images before OCR"),

		engine:        fs.StringLong("engine", scanning.EngineTesseract, "OCR engine: tesseract, gosseract, azure, gemini or ollama"),
		tesseractPath: fs.StringLong("tesseract-path", "tesseract", "Path to the tesseract binary"),
		language:      fs.StringLong("tesseract-lang", "eng", "Tesseract language"),
		azureEndpoint: fs.StringLong("azure-endpoint", "", "Azure Computer Vision endpoint"),
		azureKey:      fs.StringLong("azure-key", "", "Azure Computer Vision subscription key"),
		geminiKey:     fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel:   fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name"),
		ollamaURL:     fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel:   fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)"),
	}
}

// Engine returns the OCR engine settings
func (c *Common) Engine() scanning.EngineConfig {
	geminiKey := *c.geminiKey
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API_KEY")
	}

	return scanning.EngineConfig{
		Name:          strings.ToLower(strings.TrimSpace(*c.engine)),
		TesseractPath: *c.tesseractPath,
		Language:      *c.language,
		AzureEndpoint: *c.azureEndpoint,
		AzureKey:      *c.azureKey,
		GeminiKey:     geminiKey,
		GeminiModel:   *c.geminiModel,
		OllamaURL:     *c.ollamaURL,
		OllamaModel:   *c.ollamaModel,
	}
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse resolves fs from args, then the environment, then the config file
// named by --config.
func Parse(fs *ff.FlagSet, args []string) error {
	return ff.Parse(fs, args,
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parse),
	)
}

// NewLogger builds the text logger for the given level name
func NewLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
