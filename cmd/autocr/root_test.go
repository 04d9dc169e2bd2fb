package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autocr/pkg/model"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	original := os.Stdout
	read, write, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = write
	defer func() { os.Stdout = original }()

	fn()

	_ = write.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(read); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	return buf.String()
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	original := os.Stderr
	read, write, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stderr = write
	defer func() { os.Stderr = original }()

	fn()

	_ = write.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(read); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	return buf.String()
}

func assertExitCode(t *testing.T, err error, want int) {
	t.Helper()
	withCode, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatalf("expected error with exit code, got %T (%v)", err, err)
	}
	if got := withCode.ExitCode(); got != want {
		t.Fatalf("unexpected exit code: got=%d want=%d err=%v", got, want, err)
	}
}

func TestRootCmd_JSONFormatCleanFileExitsZero(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clean.ts")
	writeFile(t, file, "export const answer = 42\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{file, "--format", "json"})

	var runErr error
	output := captureStdout(t, func() {
		runErr = cmd.Execute()
	})
	if runErr != nil {
		t.Fatalf("Execute returned error: %v", runErr)
	}

	var summary model.ScanSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("output is not valid ScanSummary JSON: %v\noutput: %s", err, output)
	}
	if summary.Summary.ScannedFiles != 1 {
		t.Fatalf("ScannedFiles = %d, want 1", summary.Summary.ScannedFiles)
	}
	if summary.Summary.ViolationTotals.Error != 0 {
		t.Fatalf("ViolationTotals.Error = %d, want 0", summary.Summary.ViolationTotals.Error)
	}
}

func TestRootCmd_CustomRuleViolationExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.ts")
	writeFile(t, file, "const token = eval(userInput)\n")

	ruleDir := filepath.Join(dir, "rules")
	writeFile(t, filepath.Join(ruleDir, "no-eval.yaml"), `
name: no-eval
tag: base
severity: error
pattern: 'eval\('
message: do not call eval
`)

	cmd := newRootCmd()
	cmd.SetArgs([]string{file, "--rule-dir", ruleDir, "--format", "json"})

	var runErr error
	output := captureStdout(t, func() {
		runErr = cmd.Execute()
	})
	if runErr == nil {
		t.Fatal("expected an error-severity violation to produce a non-zero exit")
	}
	assertExitCode(t, runErr, 1)

	var summary model.ScanSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("output is not valid ScanSummary JSON: %v\noutput: %s", err, output)
	}
	if summary.Summary.ViolationTotals.Error != 1 {
		t.Fatalf("ViolationTotals.Error = %d, want 1", summary.Summary.ViolationTotals.Error)
	}
}

func TestRootCmd_NoPathsIsNotAnError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})

	var runErr error
	output := captureStderr(t, func() {
		runErr = cmd.Execute()
	})
	if runErr != nil {
		t.Fatalf("Execute returned error: %v", runErr)
	}
	if !strings.Contains(output, "no paths provided") {
		t.Fatalf("expected a notification about missing paths, got: %s", output)
	}
}

func TestRootCmd_StdinFlagMergesWithPositionalPaths(t *testing.T) {
	dir := t.TempDir()
	stdinFile := filepath.Join(dir, "stdin.ts")
	writeFile(t, stdinFile, "export const a = 1\n")

	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdinFile + "\n"))
	cmd.SetArgs([]string{"--stdin", "--format", "json"})

	var runErr error
	output := captureStdout(t, func() {
		runErr = cmd.Execute()
	})
	if runErr != nil {
		t.Fatalf("Execute returned error: %v", runErr)
	}

	var summary model.ScanSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("output is not valid ScanSummary JSON: %v\noutput: %s", err, output)
	}
	if summary.Summary.ScannedFiles != 1 {
		t.Fatalf("ScannedFiles = %d, want 1 (path supplied only via --stdin)", summary.Summary.ScannedFiles)
	}
}

func TestScanSubcommandSharesRootBehavior(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clean.ts")
	writeFile(t, file, "export const answer = 42\n")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"scan", file, "--format", "json"})

	var runErr error
	output := captureStdout(t, func() {
		runErr = cmd.Execute()
	})
	if runErr != nil {
		t.Fatalf("Execute returned error: %v", runErr)
	}

	var summary model.ScanSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		t.Fatalf("output is not valid ScanSummary JSON: %v\noutput: %s", err, output)
	}
	if summary.Summary.ScannedFiles != 1 {
		t.Fatalf("ScannedFiles = %d, want 1", summary.Summary.ScannedFiles)
	}
}
