package scan

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"autocr/pkg/model"
	"autocr/pkg/report"
	"autocr/pkg/resolve"
	"autocr/pkg/rule"
	"autocr/pkg/rules"
	"autocr/pkg/sourceindex"
)

// prepareRules implements phase 5: a fresh resolver-backed builtin set merged with the caller's
// custom rules, with severity settings applied. This is also what each parallel worker calls as
// its own "init", per spec.md §4.8 — resolver state (and so the circular-dependency rule's
// caches) must stay private to whichever goroutine owns it, never shared across workers.
func prepareRules(opts *Options) ([]rule.Rule, []model.Notification) {
	resolver := resolve.New(opts.projectRoot())
	resolver.TsconfigOverride = opts.TsconfigPath
	builtins := rules.Builtins(resolver, opts.projectRoot())
	merged := append(append([]rule.Rule{}, builtins...), opts.CustomRules...)
	return ApplyRuleSettings(merged, opts.RuleSettings)
}

// minFileCountForMultiWorker is spec.md §4.7 step 6's threshold below which a scan runs
// single-threaded even without an explicit AUTO_CR_WORKERS override.
const minFileCountForMultiWorker = 20

// workerCount implements phase 6. override, when non-nil, stands in for AUTO_CR_WORKERS (used by
// tests instead of racing on process environment).
func workerCount(fileCount int, override *int) int {
	if fileCount <= 0 {
		return 0
	}

	raw := ""
	if override != nil {
		raw = strconv.Itoa(*override)
	} else {
		raw = strings.TrimSpace(os.Getenv("AUTO_CR_WORKERS"))
	}
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return clamp(parsed, 0, fileCount)
		}
	}

	workers := 1
	if fileCount >= minFileCountForMultiWorker {
		workers = runtime.NumCPU() - 1
		if workers < 1 {
			workers = 1
		}
	}
	return clamp(workers, 1, fileCount)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fileOutcome is a single file's analysis result plus the notifications captured while producing
// it, mirroring the worker protocol's {summary, logs} response shape (spec.md §4.8).
type fileOutcome struct {
	result model.FileScanResult
	logs   []model.Notification
}

// filePipeline is the per-file analysis pipeline shared by both dispatch modes: read, parse,
// run the effective rule set, flush. It carries no mutable state of its own — analyze's only
// shared state is the rule list and scan-wide options, both read-only for the scan's duration —
// so the same value is safe to use from multiple dispatchParallel goroutines concurrently.
type filePipeline struct {
	opts  *Options
	rules []rule.Rule
}

func (p filePipeline) analyze(path string) fileOutcome {
	source, err := os.ReadFile(path)
	if err != nil {
		return p.failureOutcome(path, fmt.Sprintf("could not read file: %v", err))
	}

	tree, err := p.opts.Parser.Parse(path, source)
	if err != nil {
		return p.failureOutcome(path, fmt.Sprintf("parser failure: %v", err))
	}

	text := string(source)
	index := sourceindex.Build(text, tree.ModuleStart)
	// textMode is always false here: the reporter's own immediate render would interleave
	// concurrent workers' output by completion order. Rendering instead happens once, in input
	// order, from the orchestrator's output cursor in Run's finalise phase.
	reporter := report.New(path, text, index, false, p.opts.Provider)
	ctx := rule.CreateContext(tree, path, text, p.opts.Parser.Language(), reporter, p.opts.Provider)
	result, notifications := rule.RunRules(ctx, p.rules)
	return fileOutcome{result: result, logs: notifications}
}

// failureOutcome implements spec.md §7's parser-failure taxonomy entry: a single error
// notification and a file result that counts as one error without fabricating a violation.
func (p filePipeline) failureOutcome(path, detail string) fileOutcome {
	notification := model.Notification{
		Level:   model.LevelError,
		Message: "failed to analyze " + path,
		Detail:  detail,
	}
	return fileOutcome{
		result: model.FileScanResult{
			FilePath:        path,
			SeverityCounts:  model.SeverityCounts{Error: 1},
			TotalViolations: 1,
			ErrorViolations: 1,
		},
		logs: []model.Notification{notification},
	}
}

// dispatchSequential implements phase 7's worker-count-1 branch: input-order analysis with a
// memoisation cache for a path repeated across the input list.
func dispatchSequential(files []string, pipeline filePipeline) []fileOutcome {
	outcomes := make([]fileOutcome, len(files))
	cache := make(map[string]fileOutcome, len(files))
	for i, path := range files {
		if cached, ok := cache[path]; ok {
			outcomes[i] = cached
			continue
		}
		outcome := pipeline.analyze(path)
		cache[path] = outcome
		outcomes[i] = outcome
	}
	return outcomes
}

// dispatchParallel implements phase 7's worker-count->1 branch. Unique paths are deduplicated
// (preserving the mapping of each unique path back to every input index it occupies) and fed to a
// fixed-size worker pool through a FIFO channel; each worker pulls one path at a time, analyzes
// it, and the result is fanned back out to every input index that shared the path. There is no
// literal init/shutdown message exchange here — jobs drain when the FIFO channel closes and every
// worker goroutine returns, the idiomatic Go equivalent of spec.md §4.8's explicit shutdown
// message — but the one-task-at-a-time, FIFO-ordered assignment it describes is preserved. Each
// goroutine calls prepareRules once for itself before taking any task, its own "init message",
// so its resolver caches and circular-dependency dedup set are never shared with another worker.
func dispatchParallel(files []string, workers int, opts *Options) []fileOutcome {
	uniquePaths := make([]string, 0, len(files))
	indicesByPath := make(map[string][]int, len(files))
	for i, path := range files {
		if _, ok := indicesByPath[path]; !ok {
			uniquePaths = append(uniquePaths, path)
		}
		indicesByPath[path] = append(indicesByPath[path], i)
	}

	jobs := make(chan string, len(uniquePaths))
	for _, path := range uniquePaths {
		jobs <- path
	}
	close(jobs)

	type keyed struct {
		path    string
		outcome fileOutcome
	}
	resultCh := make(chan keyed, len(uniquePaths))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			workerRules, _ := prepareRules(opts)
			pipeline := filePipeline{opts: opts, rules: workerRules}
			for path := range jobs {
				resultCh <- keyed{path: path, outcome: pipeline.analyze(path)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	outcomes := make([]fileOutcome, len(files))
	for kr := range resultCh {
		for _, idx := range indicesByPath[kr.path] {
			outcomes[idx] = kr.outcome
		}
	}
	return outcomes
}
