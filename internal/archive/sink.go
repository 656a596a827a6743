package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DirSink stages archives as temp files in Dir and renames them on save.
type DirSink struct {
	Dir string
}

// NewDirSink returns a sink writing into dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Stage writes blob to a temp file in the sink directory.
func (s *DirSink) Stage(blob []byte) (Handle, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	f, err := os.CreateTemp(s.Dir, ".uigen-export-*.zip")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	return &fileHandle{dir: s.Dir, tmp: f.Name()}, nil
}

type fileHandle struct {
	mu    sync.Mutex
	dir   string
	tmp   string
	saved bool
	freed bool
}

func (h *fileHandle) Save(name string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.freed {
		return "", errors.New("archive handle already released")
	}
	dst := filepath.Join(h.dir, name)
	if err := os.Rename(h.tmp, dst); err != nil {
		return "", err
	}
	h.saved = true
	return dst, nil
}

// Release removes the temp file unless Save moved it.
func (h *fileHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.freed {
		return nil
	}
	h.freed = true
	if h.saved {
		return nil
	}
	if err := os.Remove(h.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
