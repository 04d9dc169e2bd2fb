// Package scan implements the scan orchestrator (C7): the eight-phase pipeline that turns a set
// of input paths into a ScanSummary — validating input, filtering and expanding paths against the
// ignore matcher, preparing the effective rule set, and dispatching per-file analysis across a
// worker pool (C8) sized from AUTO_CR_WORKERS.
package scan

import (
	"os"
	"time"

	"autocr/pkg/ignore"
	"autocr/pkg/messages"
	"autocr/pkg/model"
	"autocr/pkg/report"
	"autocr/pkg/rule"
	"autocr/pkg/syntax"
)

// Options configures a single scan invocation. Every field is pre-resolved by the caller (the CLI
// collaborator, cmd/autocr): config loading, locale selection, and ignore-file parsing all happen
// upstream so this package never touches configuration formats directly.
type Options struct {
	// Paths are the scan's positional input paths, files or directories, in caller order.
	Paths []string
	// ProjectRoot anchors the module resolver and the text rendered for a circular-dependency
	// chain. Defaults to the current working directory when empty.
	ProjectRoot string

	// Parser turns a file's source bytes into a syntax.Tree. Required.
	Parser syntax.Parser
	// Provider supplies every localized string the reporter and notification renderer need.
	// Required.
	Provider messages.Provider
	// TextMode selects the reporter's immediate human-readable render; false means the caller
	// only wants the structured ScanSummary (JSON output mode).
	TextMode bool
	// Output receives text-mode notification lines. Defaults to os.Stderr.
	Output *os.File

	// Ignore is the pre-parsed ignore matcher; nil means nothing is ignored.
	Ignore *ignore.Matcher
	// IgnoreBaseDir is the directory the ignore file's patterns are relative to, used for the
	// relative-form match spec.md §4.7 step 3 requires alongside the absolute form.
	IgnoreBaseDir string

	// CustomRules are externally supplied rules merged alongside the built-ins.
	CustomRules []rule.Rule
	// TsconfigPath, when non-empty, overrides the module resolver's per-directory tsconfig.json
	// discovery with this single file for every import in the scan (spec.md §6/§4.8).
	TsconfigPath string
	// RuleSettings maps a rule name to a severity override; see ApplyRuleSettings for the
	// accepted value shapes.
	RuleSettings map[string]any

	// WorkersOverride, when non-nil, replaces the AUTO_CR_WORKERS environment lookup. Tests use
	// this instead of os.Setenv races; production callers leave it nil.
	WorkersOverride *int

	// Now returns the timestamp used for notification lines. Defaults to time.Now.
	Now func() time.Time

	// Ticker, when non-nil, is notified of scan progress: Started once file expansion is known,
	// FileDone once per finalised file (input order, same as the output cursor), Done once at the
	// very end. The core never renders progress itself; this is the narrow observer interface
	// internal/progress implements for terminal output. Nil means no observer.
	Ticker Ticker
}

// Ticker observes scan progress without the core depending on any terminal-rendering library.
type Ticker interface {
	Started(n int)
	FileDone(path string)
	Done()
}

func (o *Options) output() *os.File {
	if o.Output != nil {
		return o.Output
	}
	return os.Stderr
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Options) projectRoot() string {
	if o.ProjectRoot != "" {
		return o.ProjectRoot
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Run executes the full scan pipeline and returns the resulting summary. It never returns a
// non-nil error for anything spec.md §7 classifies as a notification; the returned error is
// reserved for conditions outside that taxonomy (none exist today, but the signature leaves room
// for a future fatal worker-protocol failure to propagate rather than being swallowed).
func Run(opts Options) (*model.ScanSummary, error) {
	summary := &model.ScanSummary{}

	// Phase 1: Validate.
	if len(opts.Paths) == 0 {
		notify(&opts, summary, model.LevelInfo, "no paths provided", "")
		return summary, nil
	}

	// Phase 2: Existence filter.
	existing := make([]string, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		if _, err := os.Stat(p); err != nil {
			notify(&opts, summary, model.LevelError, "input path does not exist: "+p, "")
			continue
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		notifyFatal(&opts, summary, model.LevelError, "all paths missing", "")
		return summary, nil
	}

	// Phase 3 (ignore matcher) is supplied pre-built via Options.Ignore; phase 4 applies it.
	files := expand(existing, opts.Ignore, opts.IgnoreBaseDir)

	// Phase 5: Rule preparation. prepareRules is also each worker's "init message" in the
	// parallel dispatch path below; this first call is the only one whose notifications are
	// kept, matching spec.md §4.8's "custom-rule load warnings in workers are suppressed, the
	// orchestrator has already emitted them".
	effective, settingNotices := prepareRules(&opts)
	summary.Notifications = append(summary.Notifications, settingNotices...)
	if len(effective) == 0 {
		notify(&opts, summary, model.LevelWarn, "no rules are enabled; nothing to scan", "")
		return summary, nil
	}

	// Phase 6: Worker-count selection.
	workers := workerCount(len(files), opts.WorkersOverride)

	if opts.Ticker != nil {
		opts.Ticker.Started(len(files))
	}

	// Phase 7: Dispatch.
	var results []fileOutcome
	if workers <= 1 {
		results = dispatchSequential(files, filePipeline{opts: &opts, rules: effective})
	} else {
		results = dispatchParallel(files, workers, &opts)
	}

	// Phase 8: Finalise. Results are already indexed by input order regardless of which
	// dispatch mode produced them, so the output cursor here is simply a sequential walk: a
	// file's logs are flushed before its violations, and text-mode rendering happens in this
	// single pass so cross-file output is interleaved by input order, never by completion order.
	at := opts.now()
	for _, outcome := range results {
		for _, n := range outcome.logs {
			summary.Notifications = append(summary.Notifications, n)
			if opts.TextMode {
				renderNotification(opts.output(), at, n)
			}
		}
		if opts.TextMode {
			report.RenderText(opts.output(), outcome.result.FilePath, outcome.result.Violations, at, opts.Provider)
		}
		summary.AddFile(outcome.result)
		if opts.Ticker != nil {
			opts.Ticker.FileDone(outcome.result.FilePath)
		}
	}
	if opts.Ticker != nil {
		opts.Ticker.Done()
	}
	return summary, nil
}

func notify(opts *Options, summary *model.ScanSummary, level model.NotificationLevel, message, detail string) {
	summary.Notify(level, message, detail)
	if opts.TextMode {
		renderNotification(opts.output(), opts.now(), model.Notification{Level: level, Message: message, Detail: detail})
	}
}

// notifyFatal is notify's counterpart for spec.md §7's fatal scan-level failures: the summary
// still carries the file outcomes it was able to produce, but ExitCode must report failure even
// with FilesWithErrors == 0.
func notifyFatal(opts *Options, summary *model.ScanSummary, level model.NotificationLevel, message, detail string) {
	summary.NotifyFatal(level, message, detail)
	if opts.TextMode {
		renderNotification(opts.output(), opts.now(), model.Notification{Level: level, Message: message, Detail: detail, Fatal: true})
	}
}
