package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"autocr/internal/cliutil"
	"autocr/internal/config"
	"autocr/internal/lang/jsscan"
	"autocr/internal/messages"
	"autocr/internal/progress"
	"autocr/pkg/ignore"
	"autocr/pkg/model"
	"autocr/pkg/scan"
)

// exitCodeError carries a process exit code alongside the underlying error, the same shape
// cmd/gts/cli.go uses so main's interface{ ExitCode() int } check picks it up without a type
// switch on a concrete package type.
type exitCodeError struct {
	code int
	err  error
}

func (e exitCodeError) Error() string {
	if e.err == nil {
		return "scan failed"
	}
	return e.err.Error()
}

func (e exitCodeError) ExitCode() int {
	return e.code
}

// cliFlags holds every flag spec.md §6 exposes, shared verbatim between the root command's
// default invocation and the explicit scan subcommand.
type cliFlags struct {
	ruleDir      string
	configPath   string
	ignorePath   string
	tsconfigPath string
	language     string
	outputFormat string
	progressMode string
	readStdin    bool
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "autocr [paths...]",
		Short: "Scan JavaScript/TypeScript sources for rule violations",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
	}
	bindScanFlags(root, flags)

	scanCmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan JavaScript/TypeScript sources for rule violations",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
	}
	bindScanFlags(scanCmd, flags)
	root.AddCommand(scanCmd)

	return root
}

func bindScanFlags(cmd *cobra.Command, flags *cliFlags) {
	cmd.Flags().StringVar(&flags.ruleDir, "rule-dir", "", "directory of custom rule YAML files")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&flags.ignorePath, "ignore", "", "path to a gitignore-style ignore file")
	cmd.Flags().StringVar(&flags.tsconfigPath, "tsconfig", "", "tsconfig.json path overriding per-directory discovery")
	cmd.Flags().StringVar(&flags.language, "lang", "", "report language, zh or en (default zh)")
	cmd.Flags().StringVar(&flags.outputFormat, "format", "text", "output format, text or json")
	cmd.Flags().StringVar(&flags.progressMode, "progress", "tty-only", "progress bar mode, tty-only, yes, or no (text format only)")
	cmd.Flags().BoolVar(&flags.readStdin, "stdin", false, "also read paths from stdin, NUL-separated if any NUL byte is present, else newline-separated")
}

func runScan(cmd *cobra.Command, args []string, flags *cliFlags) error {
	paths := append([]string{}, args...)
	if flags.readStdin {
		stdinPaths, err := cliutil.ReadPaths(cmd.InOrStdin())
		if err != nil {
			return exitCodeError{code: 1, err: err}
		}
		paths = append(paths, stdinPaths...)
	}

	language := flags.language
	ruleDir := flags.ruleDir
	ignorePath := flags.ignorePath
	tsconfigPath := flags.tsconfigPath

	now := time.Now()
	var ruleSettings map[string]any
	if flags.configPath != "" {
		cfg, notice := config.Load(flags.configPath)
		if notice != nil {
			cliutil.RenderNotification(os.Stderr, now, *notice)
		}
		cfg.ApplyDefaults(&ruleDir, &ignorePath, &tsconfigPath, &language)
		ruleSettings = cfg.RuleSettings
	}
	if language == "" {
		language = "zh"
	}

	provider := messages.New(language)

	var ignoreMatcher *ignore.Matcher
	ignoreBaseDir := ""
	if ignorePath != "" {
		matcher, err := ignore.Load(ignorePath)
		if err != nil {
			cliutil.RenderNotification(os.Stderr, now, model.Notification{
				Level:   model.LevelWarn,
				Message: fmt.Sprintf("could not read ignore file %q, nothing ignored", ignorePath),
				Detail:  err.Error(),
			})
		} else {
			ignoreMatcher = matcher
			ignoreBaseDir = filepath.Dir(ignorePath)
		}
	}

	customRules, ruleNotices := config.LoadCustomRules(ruleDir)
	for _, n := range ruleNotices {
		cliutil.RenderNotification(os.Stderr, now, n)
	}

	textMode := flags.outputFormat != "json"

	var ticker scan.Ticker
	if textMode {
		ticker = progress.New(os.Stderr, progress.Mode(flags.progressMode), isTerminal(os.Stderr))
	}

	opts := scan.Options{
		Paths:         paths,
		Parser:        jsscan.NewParser(),
		Provider:      provider,
		TextMode:      textMode,
		Ignore:        ignoreMatcher,
		IgnoreBaseDir: ignoreBaseDir,
		CustomRules:   customRules,
		TsconfigPath:  tsconfigPath,
		RuleSettings:  ruleSettings,
		Ticker:        ticker,
	}

	summary, err := scan.Run(opts)
	if err != nil {
		return exitCodeError{code: 1, err: err}
	}

	if !textMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return exitCodeError{code: 1, err: err}
		}
	}

	if code := summary.ExitCode(); code != 0 {
		return exitCodeError{code: code, err: fmt.Errorf("scan reported violations")}
	}
	return nil
}

// isTerminal reports whether f is attached to a character device, the signal progress.Mode's
// tty-only setting keys off.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
