// Package resolve implements the module resolver (spec.md §4.6, C6): turning an import specifier
// into an on-disk path given a project root, a tsconfig path-alias chain, and a workspace package
// index. A Resolver is built once per scan (per worker, in the multi-process orchestrator) and its
// caches live for that scope's lifetime; it is not safe for concurrent use from multiple
// goroutines, mirroring spec.md's "resolver caches are private to each worker" policy.
package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// resolveExtensions are tried, in order, against a relative or alias target that didn't resolve
// as an exact file.
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Result is a resolver outcome: either a resolved absolute path, or an indication that an
// alias/workspace rule was attempted but produced nothing (the caller's cue to warn rather than
// silently skip).
type Result struct {
	Resolved   string
	ShouldWarn bool
}

// Ok reports whether the specifier was resolved to a file.
func (r Result) Ok() bool {
	return r.Resolved != ""
}

// Resolver resolves import specifiers for a single project root.
type Resolver struct {
	ProjectRoot string

	// TsconfigOverride, when non-empty, replaces the per-directory tsconfig.json discovery walk
	// with a single fixed file, implementing spec.md §6's tsconfigPath flag and the worker init
	// message's same-named field (§4.8).
	TsconfigOverride string

	tsconfigs *lru.Cache[string, *tsconfigChain]
	resolved  *lru.Cache[string, Result]

	workspaceOnce sync.Once
	workspace     map[string]*workspacePackage
}

// New builds a Resolver rooted at projectRoot. Cache sizes are generous but bounded: a monorepo
// with thousands of directories and files should not make resolution memory grow unbounded.
func New(projectRoot string) *Resolver {
	tsconfigs, _ := lru.New[string, *tsconfigChain](512)
	resolved, _ := lru.New[string, Result](4096)
	return &Resolver{
		ProjectRoot: filepath.Clean(projectRoot),
		tsconfigs:   tsconfigs,
		resolved:    resolved,
	}
}

// Resolve resolves specifier as it appears in fromFile.
func (r *Resolver) Resolve(fromFile, specifier string) Result {
	key := fromFile + "\x00" + specifier
	if cached, ok := r.resolved.Get(key); ok {
		return cached
	}
	result := r.resolveUncached(fromFile, specifier)
	r.resolved.Add(key, result)
	return result
}

func (r *Resolver) resolveUncached(fromFile, specifier string) Result {
	specifier = stripQueryAndHash(specifier)
	if specifier == "" {
		return Result{}
	}
	if strings.HasPrefix(specifier, ".") {
		return r.resolveRelative(fromFile, specifier)
	}
	return r.resolveBareOrAlias(fromFile, specifier)
}

func stripQueryAndHash(specifier string) string {
	if i := strings.IndexAny(specifier, "?#"); i >= 0 {
		return specifier[:i]
	}
	return specifier
}

func (r *Resolver) resolveRelative(fromFile, specifier string) Result {
	fromDir := filepath.Dir(fromFile)
	base := filepath.Join(fromDir, specifier)

	if resolved, ok := r.resolvePathCandidate(base); ok {
		return Result{Resolved: resolved}
	}

	if chain := r.containingTSConfig(fromDir); chain != nil && len(chain.RootDirs) > 0 {
		if resolved, ok := r.retryAcrossRootDirs(base, chain.RootDirs); ok {
			return Result{Resolved: resolved}
		}
	}
	return Result{}
}

// retryAcrossRootDirs implements tsconfig's rootDirs: if base sits under one configured rootDir,
// the same relative suffix is retried against every other rootDir in the list.
func (r *Resolver) retryAcrossRootDirs(base string, rootDirs []string) (string, bool) {
	var suffix string
	found := false
	for _, root := range rootDirs {
		if rel, err := filepath.Rel(root, base); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			suffix = rel
			found = true
			break
		}
	}
	if !found {
		return "", false
	}
	for _, root := range rootDirs {
		if resolved, ok := r.resolvePathCandidate(filepath.Join(root, suffix)); ok {
			return resolved, true
		}
	}
	return "", false
}

func (r *Resolver) resolveBareOrAlias(fromFile, specifier string) Result {
	fromDir := filepath.Dir(fromFile)
	attempted := false
	chain := r.containingTSConfig(fromDir)

	if chain != nil {
		for pattern, targets := range chain.Paths {
			wildcard, ok := matchPathPattern(pattern, specifier)
			if !ok {
				continue
			}
			attempted = true
			for _, target := range targets {
				candidate := strings.Replace(target, "*", wildcard, 1)
				if resolved, ok := r.resolvePathCandidate(candidate); ok {
					return Result{Resolved: resolved}
				}
			}
		}

		if chain.BaseURL != "" && looksPathLike(specifier) && !r.isKnownPackage(fromDir, specifier) {
			attempted = true
			if resolved, ok := r.resolvePathCandidate(filepath.Join(chain.BaseURL, specifier)); ok {
				return Result{Resolved: resolved}
			}
		}
	}

	packageName, subpath := splitPackageSpecifier(specifier)
	if pkg, ok := r.workspacePackage(packageName); ok {
		attempted = true
		if resolved, ok := r.resolveWorkspaceExport(pkg, subpath); ok {
			return Result{Resolved: resolved}
		}
	}

	return Result{ShouldWarn: attempted}
}

// matchPathPattern reports whether specifier matches a tsconfig paths pattern, returning the
// captured wildcard text (empty for an exact, non-wildcard pattern).
func matchPathPattern(pattern, specifier string) (string, bool) {
	if pattern == specifier {
		return "", true
	}
	idx := strings.IndexByte(pattern, '*')
	if idx < 0 {
		return "", false
	}
	prefix, suffix := pattern[:idx], pattern[idx+1:]
	if strings.HasPrefix(specifier, prefix) && strings.HasSuffix(specifier, suffix) &&
		len(specifier) >= len(prefix)+len(suffix) {
		return specifier[len(prefix) : len(specifier)-len(suffix)], true
	}
	return "", false
}

func looksPathLike(specifier string) bool {
	return strings.Contains(specifier, "/") || strings.HasPrefix(specifier, "@")
}

// splitPackageSpecifier splits a bare specifier into a package name and the subpath after it,
// honouring scoped package names (@scope/name/subpath).
func splitPackageSpecifier(specifier string) (string, string) {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) < 2 {
			return specifier, ""
		}
		name := parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			return name, parts[2]
		}
		return name, ""
	}
	parts := strings.SplitN(specifier, "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func (r *Resolver) isKnownPackage(fromDir, specifier string) bool {
	name, _ := splitPackageSpecifier(specifier)
	if _, ok := r.workspacePackage(name); ok {
		return true
	}
	for dir := fromDir; ; {
		if fileExists(filepath.Join(dir, "node_modules", name, "package.json")) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// resolvePathCandidate tries base as an exact file, then with each resolveExtensions suffix, then
// as a directory containing an index file of each extension. Every candidate must stay inside
// ProjectRoot and must not be a .d.ts declaration file.
func (r *Resolver) resolvePathCandidate(base string) (string, bool) {
	base = filepath.Clean(base)
	if candidate, ok := r.acceptFile(base); ok {
		return candidate, true
	}
	for _, ext := range resolveExtensions {
		if candidate, ok := r.acceptFile(base + ext); ok {
			return candidate, true
		}
	}
	for _, ext := range resolveExtensions {
		if candidate, ok := r.acceptFile(filepath.Join(base, "index"+ext)); ok {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) acceptFile(path string) (string, bool) {
	if strings.HasSuffix(path, ".d.ts") {
		return "", false
	}
	if !r.withinProjectRoot(path) {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (r *Resolver) withinProjectRoot(path string) bool {
	rel, err := filepath.Rel(r.ProjectRoot, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
