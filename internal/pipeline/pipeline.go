package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/couchcryptid/asset-rating-service/internal/observability"
	"github.com/google/uuid"
)

// FileStore spools uploads and creates output files.
type FileStore interface {
	Spool(r io.Reader) (path string, cleanup func(), err error)
	CreateOutput() (io.WriteCloser, string, error)
	RemoveOutput(name string) error
}

// Sink receives the rated rows of a completed batch.
type Sink interface {
	Publish(ctx context.Context, batchID string, rows []domain.RatedRow) error
}

// Result is the outcome of a successful batch run.
type Result struct {
	BatchID  string
	Rows     []domain.RatedRow
	Filename string
	Counts   map[string]int // rating or diagnostic string -> rows
}

// Pipeline rates uploaded CSV files row by row.
type Pipeline struct {
	rater   *domain.Rater
	files   FileStore
	sink    Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline. sink may be nil.
func New(rater *domain.Rater, files FileStore, sink Sink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		rater:   rater,
		files:   files,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// Run spools upload, rates every row and writes the output file. The spooled
// upload is removed before Run returns, on success and on failure. Row-level
// problems become diagnostic ratings; only unreadable input or I/O failures
// return an error, and then no output file is left behind.
func (p *Pipeline) Run(ctx context.Context, upload io.Reader) (res Result, err error) {
	start := time.Now()
	batchID := uuid.NewString()
	logger := p.logger.With("batch_id", batchID)

	defer func() {
		if err != nil {
			p.metrics.BatchRuns.WithLabelValues("error").Inc()
			logger.Error("batch rating failed", "error", err)
			return
		}
		p.metrics.BatchRuns.WithLabelValues("success").Inc()
		p.metrics.BatchRows.Observe(float64(len(res.Rows)))
		p.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		logger.Info("batch rated", "rows", len(res.Rows), "file", res.Filename, "duration", time.Since(start))
	}()

	path, cleanup, err := p.files.Spool(upload)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	header, rows, err := readUpload(path)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	rated, counts := p.rateRows(header, rows)

	name, err := p.writeOutput(rated)
	if err != nil {
		return Result{}, err
	}

	p.publish(ctx, logger, batchID, rated)

	return Result{
		BatchID:  batchID,
		Rows:     rated,
		Filename: name,
		Counts:   counts,
	}, nil
}

func readUpload(path string) ([]string, []inputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open spooled upload: %w", err)
	}
	defer f.Close()

	header, rows, err := parseRows(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	return header, rows, nil
}

// rateRows produces exactly one rated row per input row, in input order.
func (p *Pipeline) rateRows(header []string, rows []inputRow) ([]domain.RatedRow, map[string]int) {
	rated := make([]domain.RatedRow, 0, len(rows))
	counts := make(map[string]int)

	for _, row := range rows {
		out := classifyRow(p.rater, row.assets)
		p.observe(out)
		counts[out.rating]++
		rated = append(rated, domain.RatedRow{
			Line:    row.line,
			Columns: header,
			Values:  row.values,
			Rating:  out.rating,
		})
	}
	return rated, counts
}

func (p *Pipeline) observe(out rowOutcome) {
	switch out.reason {
	case "":
		p.metrics.Ratings.WithLabelValues(out.assetType, out.rating).Inc()
	case reasonValidation:
		p.metrics.ValidationErrors.WithLabelValues(out.assetType).Inc()
		p.metrics.BatchDiagnostics.WithLabelValues(out.reason).Inc()
	default:
		p.metrics.BatchDiagnostics.WithLabelValues(out.reason).Inc()
	}
}

// writeOutput writes the rated rows to a new output file. A partially written
// file is removed on failure.
func (p *Pipeline) writeOutput(rows []domain.RatedRow) (string, error) {
	w, name, err := p.files.CreateOutput()
	if err != nil {
		return "", err
	}

	out := make([]outputRow, len(rows))
	for i, r := range rows {
		out[i] = toOutputRow(r)
	}

	writeErr := writeRows(w, out)
	closeErr := w.Close()
	if writeErr == nil && closeErr != nil {
		writeErr = fmt.Errorf("close output file: %w", closeErr)
	}
	if writeErr != nil {
		if rmErr := p.files.RemoveOutput(name); rmErr != nil {
			p.logger.Warn("remove partial output failed", "file", name, "error", rmErr)
		}
		return "", fmt.Errorf("write output %s: %w", name, writeErr)
	}
	return name, nil
}

func toOutputRow(r domain.RatedRow) outputRow {
	return outputRow{
		AssetType:          r.Get("assetType"),
		InstalledDate:      r.Get("installedDate"),
		LastMaintainedDate: r.Get("lastMaintainedDate"),
		FCIIndex:           r.Get("fciIndex"),
		RRIndex:            r.Get("rrIndex"),
		Rating:             r.Rating,
		Lat:                r.Get("lat"),
		Lng:                r.Get("lng"),
	}
}

// publish forwards rated rows to the sink. Sink failures are logged and
// counted but do not fail the batch; the output file is already written.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, batchID string, rows []domain.RatedRow) {
	if p.sink == nil || len(rows) == 0 {
		return
	}
	if err := p.sink.Publish(ctx, batchID, rows); err != nil {
		p.metrics.SinkErrors.Inc()
		logger.Warn("publish rated rows failed", "error", err, "rows", len(rows))
	}
}
