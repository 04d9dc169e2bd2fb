package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// maxWorkspacePackages guards against a runaway glob expansion in a misconfigured monorepo.
const maxWorkspacePackages = 2000

// workspacePackage is a single entry in the workspace package index, built from a directory's
// package.json.
type workspacePackage struct {
	Name    string
	Dir     string
	Main    string
	Module  string
	Types   string
	Exports interface{}
}

func (r *Resolver) workspacePackage(name string) (*workspacePackage, bool) {
	pkg, ok := r.workspacePackages()[name]
	return pkg, ok
}

func (r *Resolver) workspacePackages() map[string]*workspacePackage {
	r.workspaceOnce.Do(func() {
		r.workspace = discoverWorkspacePackages(r.ProjectRoot)
	})
	return r.workspace
}

func discoverWorkspacePackages(projectRoot string) map[string]*workspacePackage {
	index := map[string]*workspacePackage{}
	for _, pattern := range workspacePatterns(projectRoot) {
		matches, err := doublestar.Glob(filepath.Join(projectRoot, pattern))
		if err != nil {
			continue
		}
		for _, dir := range matches {
			if len(index) >= maxWorkspacePackages {
				return index
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			if pkg, ok := loadWorkspacePackage(dir); ok {
				index[pkg.Name] = pkg
			}
		}
	}
	return index
}

// workspacePatterns reads the root package.json's "workspaces" field, in either array or
// {packages: [...]} form, falling back to the conventional packages/*, apps/* layout.
func workspacePatterns(projectRoot string) []string {
	defaults := []string{"packages/*", "apps/*"}

	data, err := os.ReadFile(filepath.Join(projectRoot, "package.json"))
	if err != nil {
		return defaults
	}
	var manifest struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || len(manifest.Workspaces) == 0 {
		return defaults
	}

	var asList []string
	if err := json.Unmarshal(manifest.Workspaces, &asList); err == nil && len(asList) > 0 {
		return asList
	}
	var asObject struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(manifest.Workspaces, &asObject); err == nil && len(asObject.Packages) > 0 {
		return asObject.Packages
	}
	return defaults
}

func loadWorkspacePackage(dir string) (*workspacePackage, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, false
	}
	var manifest struct {
		Name    string      `json:"name"`
		Main    string      `json:"main"`
		Module  string      `json:"module"`
		Types   string      `json:"types"`
		Exports interface{} `json:"exports"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || manifest.Name == "" {
		return nil, false
	}
	return &workspacePackage{
		Name:    manifest.Name,
		Dir:     dir,
		Main:    manifest.Main,
		Module:  manifest.Module,
		Types:   manifest.Types,
		Exports: manifest.Exports,
	}, true
}

// resolveWorkspaceExport resolves subpath ("" for the package root) against pkg's exports map,
// falling back to module/main/types for the root subpath or a directory-relative lookup inside
// the package otherwise.
func (r *Resolver) resolveWorkspaceExport(pkg *workspacePackage, subpath string) (string, bool) {
	key := "."
	if subpath != "" {
		key = "./" + subpath
	}

	if pkg.Exports != nil {
		if target, ok := matchExportsKey(pkg.Exports, key); ok {
			if resolved, ok := r.resolvePathCandidate(filepath.Join(pkg.Dir, target)); ok {
				return resolved, true
			}
		}
	}

	if subpath == "" {
		for _, candidate := range []string{pkg.Module, pkg.Main, pkg.Types} {
			if candidate == "" {
				continue
			}
			if resolved, ok := r.resolvePathCandidate(filepath.Join(pkg.Dir, candidate)); ok {
				return resolved, true
			}
		}
		return "", false
	}
	return r.resolvePathCandidate(filepath.Join(pkg.Dir, subpath))
}

// exportConditionPriority is the condition preference order spec.md §4.6 step 5 names.
var exportConditionPriority = []string{"import", "require", "default", "types"}

// matchExportsKey resolves key against a package.json exports value, which may be a bare string
// (the package's sole entry point), a map of condition name to target (resolved immediately at
// the package root), or a map of subpath pattern to target/condition-map.
func matchExportsKey(exports interface{}, key string) (string, bool) {
	switch v := exports.(type) {
	case string:
		if key == "." {
			return v, true
		}
		return "", false
	case map[string]interface{}:
		if !isSubpathMap(v) {
			if key != "." {
				return "", false
			}
			return resolveConditional(v)
		}
		if target, ok := v[key]; ok {
			return resolveConditionalOrString(target)
		}
		for pattern, target := range v {
			wildcard, ok := matchExportPattern(pattern, key)
			if !ok {
				continue
			}
			resolved, ok := resolveConditionalOrString(target)
			if !ok {
				continue
			}
			return strings.Replace(resolved, "*", wildcard, 1), true
		}
		return "", false
	default:
		return "", false
	}
}

// isSubpathMap reports whether m's keys are export subpaths (starting with "." or "#") rather
// than condition names (node/Node's two incompatible shapes for the exports field).
func isSubpathMap(m map[string]interface{}) bool {
	for k := range m {
		return strings.HasPrefix(k, ".") || strings.HasPrefix(k, "#")
	}
	return false
}

func resolveConditionalOrString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]interface{}:
		return resolveConditional(t)
	default:
		return "", false
	}
}

func resolveConditional(m map[string]interface{}) (string, bool) {
	for _, cond := range exportConditionPriority {
		if v, ok := m[cond]; ok {
			if resolved, ok := resolveConditionalOrString(v); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

func matchExportPattern(pattern, key string) (string, bool) {
	idx := strings.IndexByte(pattern, '*')
	if idx < 0 {
		return "", false
	}
	prefix, suffix := pattern[:idx], pattern[idx+1:]
	if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) &&
		len(key) >= len(prefix)+len(suffix) {
		return key[len(prefix) : len(key)-len(suffix)], true
	}
	return "", false
}
