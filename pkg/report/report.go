// Package report implements the per-file reporter (C5): violation collection, severity
// accounting, and the two rendering modes the orchestrator drives — a structured snapshot
// consumed as JSON, and an immediate human-readable render written to stderr.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"autocr/pkg/messages"
	"autocr/pkg/model"
	"autocr/pkg/sourceindex"
	"autocr/pkg/syntax"
)

const (
	generalTag  = "untagged"
	generalRule = "general"
)

// Reporter accumulates violations for a single file. It is created once per (file, scan),
// written to during rule dispatch, and discarded after Flush.
type Reporter struct {
	filePath string
	source   string
	index    *sourceindex.Index
	textMode bool
	messages messages.Provider

	// Output receives the text-mode render performed by Flush. Defaults to os.Stderr; tests
	// substitute a buffer.
	Output io.Writer
	// Now returns the timestamp used in the text-mode header. Defaults to time.Now; tests
	// substitute a fixed clock.
	Now func() time.Time

	violations []model.ViolationRecord
	counts     model.SeverityCounts
}

// New creates a Reporter for a single file. index and source are used to resolve a span to a
// line number; provider supplies the localized strings used by the text render.
func New(filePath, source string, index *sourceindex.Index, textMode bool, provider messages.Provider) *Reporter {
	return &Reporter{
		filePath: filePath,
		source:   source,
		index:    index,
		textMode: textMode,
		messages: provider,
		Output:   os.Stderr,
		Now:      time.Now,
	}
}

// RecordInput is the normalised structured form of a rule's violation report, built by
// pkg/rule's reportViolation helper from either a raw string or a richer payload.
type RecordInput struct {
	Description string
	Code        string
	Suggestions []model.Suggestion
	Span        *syntax.Span
	Line        *int
}

// Error records a file-level, untagged error-severity violation.
func (r *Reporter) Error(msg string) {
	r.append(generalTag, generalRule, model.SeverityError, msg, 0, "", nil)
}

// ErrorAtLine records a file-level, untagged error-severity violation at a specific line.
func (r *Reporter) ErrorAtLine(line int, msg string) {
	r.append(generalTag, generalRule, model.SeverityError, msg, line, "", nil)
}

// ErrorAtSpan records a file-level, untagged error-severity violation at a span, converted to a
// line via the source index.
func (r *Reporter) ErrorAtSpan(span syntax.Span, msg string) {
	r.append(generalTag, generalRule, model.SeverityError, msg, r.lineForSpan(span), "", nil)
}

// ForRule returns a reporter scoped to a single rule: its emissions are tagged with the rule's
// own name, tag, and severity instead of the file-level defaults.
func (r *Reporter) ForRule(name, tag string, severity model.Severity) *ScopedReporter {
	return &ScopedReporter{parent: r, name: name, tag: tag, severity: severity}
}

// Flush produces an immutable snapshot of the file's violations and resets the reporter's
// internal state. In text mode it also renders every violation to Output before resetting.
func (r *Reporter) Flush() model.FileScanResult {
	result := model.FileScanResult{
		FilePath:        r.filePath,
		SeverityCounts:  r.counts,
		TotalViolations: len(r.violations),
		ErrorViolations: r.counts.Error,
		Violations:      r.violations,
	}

	if r.textMode {
		r.renderText(result.Violations)
	}

	r.violations = nil
	r.counts = model.SeverityCounts{}
	return result
}

func (r *Reporter) lineForSpan(span syntax.Span) int {
	if r.index == nil {
		return 0
	}
	return r.index.LineOfByte(r.source, span.Start)
}

func (r *Reporter) append(tag, ruleName string, severity model.Severity, message string, line int, code string, suggestions []model.Suggestion) {
	r.counts.Add(severity)
	r.violations = append(r.violations, model.ViolationRecord{
		Tag:         tag,
		RuleName:    ruleName,
		Severity:    severity,
		Message:     message,
		Line:        line,
		Code:        code,
		Suggestions: append([]model.Suggestion(nil), suggestions...),
	})
}

func (r *Reporter) renderText(violations []model.ViolationRecord) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	RenderText(r.Output, r.filePath, violations, now(), r.messages)
}

// RenderText writes violations in the reporter's human-readable format to w, stamped with at.
// It is exported so a caller driving its own ordering across files (the scan orchestrator's
// input-order output cursor, spec.md §4.7 step 7) can defer a file's render to the moment its
// turn in the input order comes up, rather than at the moment the file itself finished analysis.
func RenderText(w io.Writer, filePath string, violations []model.ViolationRecord, at time.Time, provider messages.Provider) {
	stamp := at.Format("15:04:05")

	for _, v := range violations {
		icon := provider.SeverityIcon(string(v.Severity))
		tagLabel := provider.TagLabel(v.Tag)
		fmt.Fprintf(w, "[%s] %s [%s]: %s\n", stamp, icon, tagLabel, v.RuleName)

		location := filePath
		if v.HasLine() {
			location = fmt.Sprintf("%s:%d", filePath, v.Line)
		}
		fmt.Fprintf(w, "  File: %s\n", location)
		fmt.Fprintf(w, "  Description: %s\n", v.Message)

		if v.Code != "" {
			fmt.Fprintf(w, "  Code: %s\n", v.Code)
		}
		if len(v.Suggestions) > 0 {
			texts := make([]string, 0, len(v.Suggestions))
			for _, s := range v.Suggestions {
				texts = append(texts, s.Text)
			}
			fmt.Fprintf(w, "  %s: %s\n", provider.SuggestionLabel(), strings.Join(texts, provider.SuggestionSeparator()))
		}
	}
}

// ScopedReporter is the reporter handed to a single rule's run(ctx) call; every emission is
// tagged with the owning rule's name, tag, and severity.
type ScopedReporter struct {
	parent   *Reporter
	name     string
	tag      string
	severity model.Severity
}

// Error records a rule-scoped violation with no line.
func (s *ScopedReporter) Error(msg string) {
	s.parent.append(s.tag, s.name, s.severity, msg, 0, "", nil)
}

// ErrorAtLine records a rule-scoped violation at a specific line.
func (s *ScopedReporter) ErrorAtLine(line int, msg string) {
	s.parent.append(s.tag, s.name, s.severity, msg, line, "", nil)
}

// ErrorAtSpan records a rule-scoped violation at a span, converted to a line via the source
// index.
func (s *ScopedReporter) ErrorAtSpan(span syntax.Span, msg string) {
	s.parent.append(s.tag, s.name, s.severity, msg, s.parent.lineForSpan(span), "", nil)
}

// Record emits a structured violation. The effective line is input.Line if set, else derived
// from input.Span via the source index, else absent (file-level).
func (s *ScopedReporter) Record(input RecordInput) {
	line := 0
	switch {
	case input.Line != nil:
		line = *input.Line
	case input.Span != nil:
		line = s.parent.lineForSpan(*input.Span)
	}
	s.parent.append(s.tag, s.name, s.severity, input.Description, line, input.Code, input.Suggestions)
}
