package filestore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/fyrsmithlabs/uigen/internal/ignore"
)

// maxSeedFileSize bounds individual files read by LoadDir.
const maxSeedFileSize = 1 << 20

// LoadDir walks root and writes every text file into store under
// "/<relative path>". Paths matched by the root's ignore files, files over
// 1MB and non UTF-8 files are skipped. Returns the number of files loaded.
func LoadDir(store *MemoryStore, root string) (int, error) {
	matcher, err := ignore.Load(root)
	if err != nil {
		return 0, fmt.Errorf("failed to read ignore files: %w", err)
	}

	loaded := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxSeedFileSize {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(content) {
			return nil
		}
		if err := store.Write("/"+rel, string(content)); err != nil {
			return err
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("failed to load workspace %s: %w", root, err)
	}
	return loaded, nil
}
