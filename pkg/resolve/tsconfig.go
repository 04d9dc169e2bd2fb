package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// tsconfigChain is the merged view of a tsconfig.json's compilerOptions, after following its
// extends chain. All paths are absolute.
type tsconfigChain struct {
	BaseURL  string
	Paths    map[string][]string
	RootDirs []string
}

type rawTSConfig struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL  string              `json:"baseUrl"`
		Paths    map[string][]string `json:"paths"`
		RootDirs []string            `json:"rootDirs"`
	} `json:"compilerOptions"`
}

// containingTSConfig walks upward from dir (inclusive) to ProjectRoot looking for the nearest
// tsconfig.json, with at most one file read/parse per directory (cached on r.tsconfigs).
func (r *Resolver) containingTSConfig(dir string) *tsconfigChain {
	if r.TsconfigOverride != "" {
		return r.loadTSConfigOverride()
	}
	dir = filepath.Clean(dir)
	for {
		if chain := r.loadTSConfigAt(dir); chain != nil {
			return chain
		}
		if dir == r.ProjectRoot {
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

func (r *Resolver) loadTSConfigOverride() *tsconfigChain {
	const overrideKey = "\x00override"
	if cached, ok := r.tsconfigs.Get(overrideKey); ok {
		return cached
	}
	chain := r.loadTSConfigFile(r.TsconfigOverride, map[string]bool{})
	r.tsconfigs.Add(overrideKey, chain)
	return chain
}

func (r *Resolver) loadTSConfigAt(dir string) *tsconfigChain {
	if cached, ok := r.tsconfigs.Get(dir); ok {
		return cached
	}
	chain := r.loadTSConfigFile(filepath.Join(dir, "tsconfig.json"), map[string]bool{})
	r.tsconfigs.Add(dir, chain)
	return chain
}

// loadTSConfigFile parses a single tsconfig.json, following extends with a recursion guard on
// the set of files already visited in this chain.
func (r *Resolver) loadTSConfigFile(path string, visited map[string]bool) *tsconfigChain {
	if visited[path] {
		return nil
	}
	visited[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var raw rawTSConfig
	if err := json.Unmarshal(sanitizeJSONC(data), &raw); err != nil {
		return nil
	}

	dir := filepath.Dir(path)
	chain := &tsconfigChain{}
	if raw.Extends != "" {
		if parentPath := resolveExtendsPath(dir, raw.Extends); parentPath != "" {
			if parent := r.loadTSConfigFile(parentPath, visited); parent != nil {
				*chain = *parent
			}
		}
	}

	if raw.CompilerOptions.BaseURL != "" {
		chain.BaseURL = filepath.Clean(filepath.Join(dir, raw.CompilerOptions.BaseURL))
	}
	pathsBase := chain.BaseURL
	if pathsBase == "" {
		pathsBase = dir
	}

	if len(raw.CompilerOptions.Paths) > 0 {
		if chain.Paths == nil {
			chain.Paths = map[string][]string{}
		}
		for pattern, targets := range raw.CompilerOptions.Paths {
			resolved := make([]string, len(targets))
			for i, target := range targets {
				resolved[i] = filepath.Clean(filepath.Join(pathsBase, target))
			}
			chain.Paths[pattern] = resolved
		}
	}

	if len(raw.CompilerOptions.RootDirs) > 0 {
		rootDirs := make([]string, len(raw.CompilerOptions.RootDirs))
		for i, rd := range raw.CompilerOptions.RootDirs {
			rootDirs[i] = filepath.Clean(filepath.Join(dir, rd))
		}
		chain.RootDirs = rootDirs
	}

	return chain
}

// resolveExtendsPath resolves a tsconfig "extends" value: a relative path (with or without the
// .json suffix) or a module-style reference found by walking up through ancestor node_modules.
func resolveExtendsPath(dir, extends string) string {
	if strings.HasPrefix(extends, ".") {
		if path, ok := existingJSONFile(filepath.Join(dir, extends)); ok {
			return path
		}
		return ""
	}
	for d := dir; ; {
		if path, ok := existingJSONFile(filepath.Join(d, "node_modules", extends)); ok {
			return path
		}
		parent := filepath.Dir(d)
		if parent == d {
			return ""
		}
		d = parent
	}
}

func existingJSONFile(candidate string) (string, bool) {
	if strings.HasSuffix(candidate, ".json") {
		if fileExists(candidate) {
			return candidate, true
		}
		return "", false
	}
	if fileExists(candidate) {
		return candidate, true
	}
	if withExt := candidate + ".json"; fileExists(withExt) {
		return withExt, true
	}
	return "", false
}

// sanitizeJSONC strips // and /* */ comments (outside of string literals) and trailing commas
// before unmarshaling a tsconfig.json, which permits both in practice despite being invalid JSON.
func sanitizeJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	var quote byte

	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				out = append(out, data[i+1])
				i++
				continue
			}
			if c == quote {
				inString = false
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			inString = true
			quote = c
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, data[i])
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, c)
		}
	}
	return stripTrailingCommas(out)
}

func stripTrailingCommas(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == ',' {
			j := i + 1
			for j < len(data) && isJSONWhitespace(data[j]) {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func isJSONWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
