package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"autocr/pkg/ignore"
)

// scannableExtensions are the extensions spec.md §9's glossary recognises as scannable source,
// excluding the ".d.ts" declaration-file special case handled separately.
var scannableExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
}

func isScannable(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	return scannableExtensions[filepath.Ext(path)]
}

// expand implements phase 4: for each input path (already filtered to existing paths, in input
// order), directories are walked recursively in lexical order, node_modules is always skipped,
// and the ignore matcher is consulted at every entry.
func expand(paths []string, matcher *ignore.Matcher, ignoreBaseDir string) []string {
	files := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		files = append(files, path)
	}

	for _, root := range paths {
		if matcher.MatchCandidate(absOrSelf(root), ignoreBaseDir, isDirPath(root)) {
			continue
		}

		if !isDirPath(root) {
			if isScannable(root) {
				add(root)
			}
			continue
		}

		_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if entry.IsDir() {
				if entry.Name() == "node_modules" {
					return filepath.SkipDir
				}
				if path != root && matcher.MatchCandidate(absOrSelf(path), ignoreBaseDir, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isScannable(path) {
				return nil
			}
			if matcher.MatchCandidate(absOrSelf(path), ignoreBaseDir, false) {
				return nil
			}
			add(path)
			return nil
		})
	}
	return files
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func isDirPath(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
