// Package archive bundles a file snapshot into a zip archive and hands it
// to a Sink for saving.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/uigen/internal/filestore"
	"github.com/fyrsmithlabs/uigen/internal/logging"
	"github.com/fyrsmithlabs/uigen/internal/metrics"
)

// FileName is the fixed name every export is saved under.
const FileName = "uigen-export.zip"

// ErrSerialize wraps failures while building the archive.
var ErrSerialize = errors.New("archive serialization failed")

// Sink stages a finished archive. The returned Handle must be released.
type Sink interface {
	Stage(blob []byte) (Handle, error)
}

// Handle is a staged archive awaiting save.
type Handle interface {
	// Save persists the archive under name and returns where it went.
	Save(name string) (string, error)
	// Release frees the staged resource. Safe to call after Save.
	Release() error
}

// Result describes a finished export. Saved is false for empty snapshots.
type Result struct {
	Saved    bool
	Location string
	Entries  int
	Bytes    int
}

// Exporter converts snapshots into saved archives.
type Exporter struct {
	sink    Sink
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// Option configures an Exporter.
type Option func(*Exporter)

func WithLogger(l *logging.Logger) Option { return func(e *Exporter) { e.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Exporter) { e.metrics = m } }

// NewExporter creates an exporter writing to sink.
func NewExporter(sink Sink, opts ...Option) *Exporter {
	e := &Exporter{sink: sink, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export builds and saves an archive of snap. An empty snapshot is a no-op:
// nothing is staged and no error is returned. The staged handle is released
// whether or not Save succeeds.
func (e *Exporter) Export(ctx context.Context, snap filestore.Snapshot) (res Result, err error) {
	if snap.Len() == 0 {
		e.logger.Debug(ctx, "export skipped, snapshot empty")
		e.metrics.ExportDone(-1, nil)
		return Result{}, nil
	}
	defer func() { e.metrics.ExportDone(res.Bytes, err) }()

	blob, err := Build(snap)
	if err != nil {
		return Result{}, err
	}

	h, err := e.sink.Stage(blob)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stage archive: %w", err)
	}
	defer func() {
		if relErr := h.Release(); relErr != nil {
			e.logger.Warn(ctx, "failed to release staged archive", zap.Error(relErr))
		}
	}()

	loc, err := h.Save(FileName)
	if err != nil {
		return Result{}, fmt.Errorf("failed to save archive: %w", err)
	}

	e.logger.Info(ctx, "archive exported",
		zap.String("location", loc),
		zap.Int("entries", snap.Len()),
		zap.Int("bytes", len(blob)))

	return Result{Saved: true, Location: loc, Entries: snap.Len(), Bytes: len(blob)}, nil
}

// Build serializes snap into zip bytes. Entry order follows the snapshot.
func Build(snap filestore.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, entry := range snap.Entries() {
		w, err := zw.Create(EntryName(entry.Path))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSerialize, entry.Path, err)
		}
		if _, err := w.Write([]byte(entry.Content)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSerialize, entry.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return buf.Bytes(), nil
}

// EntryName strips exactly one leading "/" from path.
func EntryName(path string) string {
	return strings.TrimPrefix(path, "/")
}
