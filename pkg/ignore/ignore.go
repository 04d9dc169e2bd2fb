// Package ignore implements gitignore-style pattern matching for filtering file paths, with
// picomatch-style "**" support (spec.md §4.7 step 3) via doublestar.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

type pattern struct {
	raw     string
	negated bool
	dirOnly bool
	glob    string
}

// Matcher evaluates file paths against a set of gitignore-style patterns.
type Matcher struct {
	patterns []pattern
}

// Load reads patterns from a file, one per line.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ParsePatterns(lines), nil
}

// ParsePatterns builds a Matcher from raw pattern lines.
func ParsePatterns(lines []string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p := pattern{raw: line}

		if strings.HasPrefix(line, "!") {
			p.negated = true
			line = line[1:]
		}

		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}

		p.glob = line
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Match returns true if the given path should be ignored.
// The path should be slash-separated and relative to the project root.
// isDir indicates whether the path refers to a directory.
func (m *Matcher) Match(path string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	path = filepath.ToSlash(path)
	ignored := false

	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if matchPattern(p.glob, path) {
			ignored = !p.negated
		}
	}
	return ignored
}

// MatchCandidate reports whether a scan candidate should be ignored, testing both its
// POSIX-normalised absolute path and its POSIX-normalised path relative to baseDir (spec.md §4.7
// step 3): either representation matching is enough to ignore the candidate.
func (m *Matcher) MatchCandidate(absPath, baseDir string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	if m.Match(absPath, isDir) {
		return true
	}
	if rel, err := filepath.Rel(baseDir, absPath); err == nil && !strings.HasPrefix(rel, "..") {
		if m.Match(rel, isDir) {
			return true
		}
	}
	return false
}

// matchPattern checks whether a gitignore glob matches the given path, "**" included.
// Patterns without a slash match against the basename (or any path component).
// Patterns with a slash match against the full path.
func matchPattern(glob, path string) bool {
	if strings.Contains(glob, "/") {
		matched, _ := doublestar.Match(glob, path)
		return matched
	}

	base := filepath.Base(path)
	if matched, _ := doublestar.Match(glob, base); matched {
		return true
	}

	for _, part := range strings.Split(path, "/") {
		if matched, _ := doublestar.Match(glob, part); matched {
			return true
		}
	}
	return false
}
