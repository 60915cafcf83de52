// Command ratecsv rates a CSV file of assets from disk using the same batch
// pipeline as the HTTP service, then prints how many rows received each rating.
//
// Usage:
//
//	go run ./cmd/ratecsv -in assets.csv -out-dir output
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/couchcryptid/asset-rating-service/internal/adapter/filestore"
	"github.com/couchcryptid/asset-rating-service/internal/config"
	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/couchcryptid/asset-rating-service/internal/observability"
	"github.com/couchcryptid/asset-rating-service/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	in := flag.String("in", "", "path to the CSV file to rate")
	outDir := flag.String("out-dir", cfg.OutputDir, "directory for the rated output file")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, cfg, *in, *outDir, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, inPath, outDir string, out io.Writer) int {
	logger := observability.NewLoggerTo(os.Stderr, cfg)

	f, err := os.Open(inPath)
	if err != nil {
		logger.Error("failed to open input", "path", inPath, "error", err)
		return 1
	}
	defer f.Close()

	uploadDir, err := os.MkdirTemp("", "ratecsv-")
	if err != nil {
		logger.Error("failed to create spool directory", "error", err)
		return 1
	}
	defer os.RemoveAll(uploadDir)

	store, err := filestore.New(uploadDir, outDir, cfg.OutputFilePrefix, nil, logger)
	if err != nil {
		logger.Error("failed to initialize file store", "error", err)
		return 1
	}

	p := pipeline.New(domain.NewRater(nil), store, nil, logger, observability.NewMetricsForTesting())
	res, err := p.Run(ctx, f)
	if err != nil {
		return 1
	}

	printSummary(out, res, filepath.Join(outDir, res.Filename))
	return 0
}

func printSummary(w io.Writer, res pipeline.Result, outPath string) {
	ratings := make([]string, 0, len(res.Counts))
	for r := range res.Counts {
		ratings = append(ratings, r)
	}
	sort.Strings(ratings)

	fmt.Fprintf(w, "batch %s: %d rows rated\n", res.BatchID, len(res.Rows))
	for _, r := range ratings {
		fmt.Fprintf(w, "  %-60s %d\n", r, res.Counts[r])
	}
	fmt.Fprintf(w, "output: %s\n", outPath)
}
