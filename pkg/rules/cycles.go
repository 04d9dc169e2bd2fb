package rules

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"autocr/pkg/analysis"
	"autocr/pkg/model"
	"autocr/pkg/resolve"
	"autocr/pkg/rule"
)

// maxGraphNodes and maxGraphDepth cap the per-search DFS, bounding the cost of a cycle search in
// a large or pathologically interlinked import graph.
const (
	maxGraphNodes = 2000
	maxGraphDepth = 80
)

// importSpecifierPattern recognises the handful of ways a specifier can appear as a neighbour's
// edge: a static import's "from" clause, a dynamic import(...), a require(...), an
// export ... from clause, and a bare side-effect import 'x'. This is a cheap regex scan over a
// neighbour's raw source, not a full parse: accuracy here only needs to be good enough to find
// candidate edges for cycle detection.
var importSpecifierPattern = regexp.MustCompile(
	`(?:\bimport\s+[^'"();]*?\bfrom\s*|\bimport\s*\(\s*|\brequire\s*\(\s*|\bexport\s+[^'"();]*?\bfrom\s*|\bimport\s*)(?:'([^']+)'|"([^"]+)")`,
)

// cycleState is the shared, worker-lifetime state behind the no-circular-dependencies rule: the
// resolver it consults, the reported-cycle dedup set, and the per-absolute-path neighbour cache.
// It is not safe for concurrent use, matching the resolver it wraps.
type cycleState struct {
	resolver    *resolve.Resolver
	projectRoot string
	reported    map[string]bool
	neighbours  map[string][]string
}

// NewNoCircularDependencies builds the no-circular-dependencies rule bound to resolver. Unlike
// the other rules in this package, this one carries state that must live for the whole scan (the
// resolver's caches, the reported-cycle set), so it is a constructor rather than a package-level
// Rule value: the scan orchestrator builds one resolver (and so one of these rules) per worker.
func NewNoCircularDependencies(resolver *resolve.Resolver, projectRoot string) rule.Rule {
	state := &cycleState{
		resolver:    resolver,
		projectRoot: projectRoot,
		reported:    map[string]bool{},
		neighbours:  map[string][]string{},
	}
	return rule.Rule{
		Name:     "no-circular-dependencies",
		Tag:      "base",
		Severity: model.SeverityWarning,
		Run:      state.run,
	}
}

func (s *cycleState) run(ctx *rule.RuleContext) {
	origin := filepath.Clean(ctx.FilePath)
	warnedSpecifiers := map[string]bool{}

	for _, imp := range ctx.Analysis.Imports {
		if imp.Value == "" {
			continue
		}
		result := s.resolver.Resolve(origin, imp.Value)
		if !result.Ok() {
			if result.ShouldWarn && !warnedSpecifiers[imp.Value] {
				warnedSpecifiers[imp.Value] = true
				reportUnresolvedImport(ctx, imp)
			}
			continue
		}

		path := s.findPathTo(result.Resolved, origin)
		if path == nil {
			continue
		}
		s.reportCycle(ctx, imp, origin, path)
	}
}

// findPathTo runs a depth-limited DFS over the import graph starting at start, looking for a
// path back to origin. It returns the path from start to origin (inclusive), or nil if none was
// found within the node/depth caps.
func (s *cycleState) findPathTo(start, origin string) []string {
	visiting := map[string]bool{}
	deadEnds := map[string]bool{}
	nodeCount := 0
	var path []string

	var dfs func(node string, depth int) bool
	dfs = func(node string, depth int) bool {
		if node == origin {
			path = append(path, node)
			return true
		}
		if deadEnds[node] || visiting[node] {
			return false
		}
		if depth >= maxGraphDepth || nodeCount >= maxGraphNodes {
			return false
		}

		visiting[node] = true
		nodeCount++
		found := false
		for _, next := range s.neighboursOf(node) {
			if dfs(next, depth+1) {
				path = append(path, node)
				found = true
				break
			}
		}
		delete(visiting, node)
		if !found {
			deadEnds[node] = true
		}
		return found
	}

	if !dfs(start, 0) {
		return nil
	}
	reversed := make([]string, len(path))
	for i, n := range path {
		reversed[len(path)-1-i] = n
	}
	return reversed
}

// neighboursOf returns the resolved import targets of the file at path, computed by a cheap
// regex scan of its raw source and cached by absolute path for the state's lifetime.
func (s *cycleState) neighboursOf(path string) []string {
	if cached, ok := s.neighbours[path]; ok {
		return cached
	}

	targets := make([]string, 0, 4)
	for _, specifier := range scanImportSpecifiers(path) {
		if result := s.resolver.Resolve(path, specifier); result.Ok() {
			targets = append(targets, result.Resolved)
		}
	}
	s.neighbours[path] = targets
	return targets
}

func scanImportSpecifiers(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	matches := importSpecifierPattern.FindAllStringSubmatch(string(data), -1)
	specifiers := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			specifiers = append(specifiers, m[1])
		} else {
			specifiers = append(specifiers, m[2])
		}
	}
	return specifiers
}

// reportCycle canonicalises the cycle [origin, path...] by rotating the sequence (excluding the
// trailing origin) to its lexicographically least form, and reports it only from the one file
// that form starts at — every other member of the cycle discovers the identical canonical form
// from its own DFS and stays silent. This makes the decision a pure function of the cycle itself
// rather than "whichever file got there first": each worker in a parallel scan starts with its
// own empty reported-cycle set (see pkg/scan/workers.go), so a first-come rule would make output
// depend on worker scheduling — the canonical-least-node test does not, since exactly one file in
// any given cycle is ever its lexicographically least member, regardless of which worker analyses
// it or in what order. The per-origin reported set below only guards against the same file
// rediscovering its own cycle through more than one qualifying import.
func (s *cycleState) reportCycle(ctx *rule.RuleContext, imp analysis.ImportReference, origin string, path []string) {
	cycle := append([]string{origin}, path...)
	canonical := canonicalCycleNodes(cycle[:len(cycle)-1])
	if canonical[0] != origin {
		return
	}

	key := strings.Join(canonical, "->")
	if s.reported[key] {
		return
	}
	s.reported[key] = true

	ctx.Helpers.ReportViolation(
		rule.Violation("circular dependency detected").
			WithCode(s.humanReadableChain(cycle)).
			WithSpan(imp.Span),
		nil,
	)
}

func (s *cycleState) humanReadableChain(nodes []string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		if rel, err := filepath.Rel(s.projectRoot, n); err == nil {
			parts[i] = rel
		} else {
			parts[i] = n
		}
	}
	return strings.Join(parts, " -> ")
}

// canonicalCycleNodes returns the lexicographically least rotation of nodes, used both to key
// cycle dedup and to decide which single node in the cycle is responsible for reporting it.
func canonicalCycleNodes(nodes []string) []string {
	best := nodes
	for i := 1; i < len(nodes); i++ {
		rotated := append(append([]string{}, nodes[i:]...), nodes[:i]...)
		if lexLess(rotated, best) {
			best = rotated
		}
	}
	return best
}

func lexLess(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func reportUnresolvedImport(ctx *rule.RuleContext, imp analysis.ImportReference) {
	ctx.Helpers.ReportViolation(
		rule.Violation("import could not be resolved").WithCode(imp.Value).WithSpan(imp.Span),
		nil,
	)
}
