// Package ignore turns gitignore-style files into glob patterns used to
// skip paths when seeding a workspace from disk.
package ignore

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultFiles are the ignore files read from a workspace root.
var DefaultFiles = []string{".gitignore", ".uigenignore"}

// DefaultPatterns are applied on top of whatever the ignore files say.
var DefaultPatterns = []string{".git/**", "**/node_modules/**", "**/.DS_Store"}

// Matcher reports whether a slash-separated relative path is excluded.
type Matcher struct {
	patterns []string
}

// NewMatcher returns a matcher for patterns. Invalid patterns are dropped.
func NewMatcher(patterns []string) *Matcher {
	valid := make([]string, 0, len(patterns))
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if seen[p] || !doublestar.ValidatePattern(p) {
			continue
		}
		seen[p] = true
		valid = append(valid, p)
	}
	return &Matcher{patterns: valid}
}

// Load reads every ignore file in root and returns a matcher over their
// patterns plus DefaultPatterns. Missing files are skipped.
func Load(root string, files ...string) (*Matcher, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}
	patterns := append([]string(nil), DefaultPatterns...)
	for _, name := range files {
		parsed, err := parseFile(filepath.Join(root, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, parsed...)
	}
	return NewMatcher(patterns), nil
}

// Patterns returns the effective patterns in order.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether rel (slash-separated, relative to the root) is
// excluded. A directory pattern "dir/**" also matches "dir" itself.
func (m *Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if base, found := strings.CutSuffix(p, "/**"); found {
			if ok, _ := doublestar.Match(base, rel); ok {
				return true
			}
		}
	}
	return false
}

func parseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p := parseLine(scanner.Text()); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns, scanner.Err()
}

// parseLine converts one gitignore line to a glob. Comments, blanks and
// negations yield "".
func parseLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ""
	}

	anchored := strings.HasPrefix(line, "/")
	p := strings.TrimPrefix(line, "/")
	dirOnly := strings.HasSuffix(p, "/")
	p = strings.TrimSuffix(p, "/")

	if !anchored && !strings.Contains(p, "/") && !strings.HasPrefix(p, "**") {
		p = "**/" + p
	}
	if dirOnly || !strings.Contains(filepath.Base(p), ".") && !strings.ContainsAny(filepath.Base(p), "*?[") {
		p += "/**"
	}
	return p
}
