package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrNotFound is returned when a requested output file does not exist or the
// name does not refer to a file inside the output directory.
var ErrNotFound = errors.New("output file not found")

// maxNameAttempts bounds the search for a free output name.
const maxNameAttempts = 1000

// Store manages spooled uploads and generated output files on local disk.
type Store struct {
	uploadDir string
	outputDir string
	prefix    string
	clock     clockwork.Clock
	logger    *slog.Logger
}

// New creates a Store, creating both directories if needed. A nil clock uses real time.
func New(uploadDir, outputDir, prefix string, clock clockwork.Clock, logger *slog.Logger) (*Store, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		uploadDir: uploadDir,
		outputDir: outputDir,
		prefix:    prefix,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Spool copies r into a temporary file in the upload directory. The returned
// cleanup removes the file and must be called on every path.
func (s *Store) Spool(r io.Reader) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp(s.uploadDir, "upload-*.csv")
	if err != nil {
		return "", nil, fmt.Errorf("create upload file: %w", err)
	}
	path = f.Name()
	cleanup = func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("remove spooled upload failed", "path", path, "error", rmErr)
		}
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close upload file: %w", err)
	}
	return path, cleanup, nil
}

// CreateOutput creates a new output file named <prefix><unix-millis>.csv.
// Creation is exclusive: if the name exists the millisecond suffix is
// advanced until a free name is found.
func (s *Store) CreateOutput() (io.WriteCloser, string, error) {
	ms := s.clock.Now().UnixMilli()
	for i := 0; i < maxNameAttempts; i++ {
		name := s.prefix + strconv.FormatInt(ms, 10) + ".csv"
		f, err := os.OpenFile(filepath.Join(s.outputDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create output file: %w", err)
		}
		ms++
	}
	return nil, "", fmt.Errorf("create output file: no free name after %d attempts", maxNameAttempts)
}

// RemoveOutput deletes an output file. Missing files are not an error.
func (s *Store) RemoveOutput(name string) error {
	path, err := s.outputPath(name)
	if err != nil {
		return nil //nolint:nilerr // an invalid name cannot refer to an existing file
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove output file: %w", err)
	}
	return nil
}

// OpenOutput opens a previously generated output file for reading.
func (s *Store) OpenOutput(name string) (*os.File, error) {
	path, err := s.outputPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open output file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// Sweep removes output files last modified more than maxAge ago and returns
// how many were removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return 0, fmt.Errorf("read output directory: %w", err)
	}

	cutoff := s.clock.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), s.prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.outputDir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("remove expired output failed", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// CheckReadiness reports whether the output directory is usable.
func (s *Store) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(s.outputDir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", s.outputDir)
	}
	return nil
}

// outputPath resolves name inside the output directory, rejecting anything
// that is not a bare file name.
func (s *Store) outputPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", ErrNotFound
	}
	return filepath.Join(s.outputDir, name), nil
}
