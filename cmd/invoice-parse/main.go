package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-scanner/internal/batch"
	"github.com/zombor/invoice-scanner/internal/config"
	"github.com/zombor/invoice-scanner/internal/scanning"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := ff.NewFlagSet("invoice-parse")
	common := config.RegisterCommon(fs)
	var (
		textMode = fs.BoolLong("text", "Treat inputs as raw OCR text instead of images")
		workers  = fs.IntLong("workers", runtime.NumCPU(), "Number of files processed at once")
		format   = fs.StringLong("format", "json", "Output format: json or pretty")
	)

	if err := config.Parse(fs, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	paths := fs.GetArgs()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: no input files")
		os.Exit(1)
	}
	if *format != "json" && *format != "pretty" {
		fmt.Fprintf(os.Stderr, "error: unknown format %q (valid: json, pretty)\n", *format)
		os.Exit(1)
	}

	logger, err := config.NewLogger(*common.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	var runner *batch.Runner
	if *textMode {
		runner = batch.NewTextRunner(*workers)
	} else {
		scanner, err := scanning.NewEngine(common.Engine())
		if err != nil {
			slog.Error("Failed to initialize OCR engine", "error", err)
			os.Exit(1)
		}
		acquirer := scanning.NewAcquirer(scanner, scanning.WithEnhancement(*common.Enhance))
		defer acquirer.Close()
		runner = batch.NewImageRunner(acquirer, *workers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := runner.Run(ctx, paths)
	if err != nil {
		slog.Error("Failed to process invoices", "error", err)
		os.Exit(1)
	}

	if *format == "pretty" {
		err = batch.WritePretty(os.Stdout, results)
	} else {
		err = batch.WriteJSON(os.Stdout, results)
	}
	if err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}

	if failed := batch.Failed(results); failed > 0 {
		slog.Warn("Some files could not be read", "failed", failed, "total", len(results))
		os.Exit(2)
	}
}
