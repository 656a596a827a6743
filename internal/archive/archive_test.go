package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/uigen/internal/filestore"
	"github.com/fyrsmithlabs/uigen/internal/metrics"
)

type recordingSink struct {
	staged   [][]byte
	saved    []string
	released int
	stageErr error
	saveErr  error
}

func (s *recordingSink) Stage(blob []byte) (Handle, error) {
	if s.stageErr != nil {
		return nil, s.stageErr
	}
	s.staged = append(s.staged, append([]byte(nil), blob...))
	return &recordingHandle{sink: s}, nil
}

type recordingHandle struct{ sink *recordingSink }

func (h *recordingHandle) Save(name string) (string, error) {
	if h.sink.saveErr != nil {
		return "", h.sink.saveErr
	}
	h.sink.saved = append(h.sink.saved, name)
	return "mem://" + name, nil
}

func (h *recordingHandle) Release() error {
	h.sink.released++
	return nil
}

func readZip(t *testing.T, blob []byte) map[string]string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)

	out := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func sampleSnapshot() filestore.Snapshot {
	return filestore.NewSnapshot(
		filestore.Entry{Path: "/App.jsx", Content: "export default function App() {}"},
		filestore.Entry{Path: "/components/Button.jsx", Content: "<button/>"},
		filestore.Entry{Path: "//double.txt", Content: "kept one slash"},
	)
}

func TestExport_EmptySnapshotHasNoSideEffects(t *testing.T) {
	sink := &recordingSink{}
	m := metrics.New(prometheus.NewRegistry())
	e := NewExporter(sink, WithMetrics(m))

	res, err := e.Export(context.Background(), filestore.NewSnapshot())
	require.NoError(t, err)

	assert.False(t, res.Saved)
	assert.Empty(t, sink.staged)
	assert.Empty(t, sink.saved)
	assert.Zero(t, sink.released)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("empty")))
}

func TestExport_EntriesAndFixedName(t *testing.T) {
	sink := &recordingSink{}
	e := NewExporter(sink)

	res, err := e.Export(context.Background(), sampleSnapshot())
	require.NoError(t, err)

	assert.True(t, res.Saved)
	assert.Equal(t, "mem://uigen-export.zip", res.Location)
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, []string{FileName}, sink.saved)
	assert.Equal(t, 1, sink.released)

	files := readZip(t, sink.staged[0])
	assert.Equal(t, map[string]string{
		"App.jsx":               "export default function App() {}",
		"components/Button.jsx": "<button/>",
		"/double.txt":           "kept one slash",
	}, files)
}

func TestExport_IdempotentOnUnchangedSnapshot(t *testing.T) {
	sink := &recordingSink{}
	e := NewExporter(sink)
	snap := sampleSnapshot()

	_, err := e.Export(context.Background(), snap)
	require.NoError(t, err)
	_, err = e.Export(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, sink.staged, 2)
	assert.Equal(t, readZip(t, sink.staged[0]), readZip(t, sink.staged[1]))
}

func TestExport_ReleasesOnSaveFailure(t *testing.T) {
	saveErr := errors.New("disk full")
	sink := &recordingSink{saveErr: saveErr}
	m := metrics.New(prometheus.NewRegistry())
	e := NewExporter(sink, WithMetrics(m))

	_, err := e.Export(context.Background(), sampleSnapshot())
	require.ErrorIs(t, err, saveErr)
	assert.Equal(t, 1, sink.released)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("error")))
}

func TestExport_StageFailurePropagates(t *testing.T) {
	stageErr := errors.New("no space")
	sink := &recordingSink{stageErr: stageErr}

	_, err := NewExporter(sink).Export(context.Background(), sampleSnapshot())
	require.ErrorIs(t, err, stageErr)
	assert.Zero(t, sink.released)
}

func TestExport_DoesNotMutateStore(t *testing.T) {
	store := filestore.NewMemoryStore()
	require.NoError(t, store.Write("/App.jsx", "x"))
	before := store.Snapshot().Entries()

	_, err := NewExporter(&recordingSink{}).Export(context.Background(), store.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, before, store.Snapshot().Entries())
	assert.Zero(t, store.Resets())
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "App.jsx", EntryName("/App.jsx"))
	assert.Equal(t, "a/b.css", EntryName("/a/b.css"))
	assert.Equal(t, "/x", EntryName("//x"))
}

func TestDirSink_SaveAndRelease(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(NewDirSink(dir))

	res, err := e.Export(context.Background(), sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), res.Location)

	blob, err := os.ReadFile(res.Location)
	require.NoError(t, err)
	assert.Len(t, readZip(t, blob), 3)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".uigen-export-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDirSink_ReleaseWithoutSaveRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	h, err := NewDirSink(dir).Stage([]byte("zip"))
	require.NoError(t, err)

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = h.Save(FileName)
	assert.Error(t, err)
}
