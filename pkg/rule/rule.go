// Package rule implements the rule runtime (C3): it materialises a RuleContext from a parsed
// tree, the shared analysis indices, and a file reporter, then dispatches each configured rule in
// order, isolating failures so one misbehaving rule never takes down a file's scan.
package rule

import (
	"fmt"
	"strings"

	"autocr/pkg/analysis"
	"autocr/pkg/messages"
	"autocr/pkg/model"
	"autocr/pkg/report"
	"autocr/pkg/sourceindex"
	"autocr/pkg/syntax"
)

// Rule is a single detector: pure over its RuleContext, producing side effects only through
// ctx.Reporter / ctx.Helpers.ReportViolation.
type Rule struct {
	Name     string
	Tag      string // "base", "performance", or "untagged"
	Severity model.Severity
	Run      func(ctx *RuleContext)
}

// RuleContext is the non-owning view a rule's Run receives: the parsed tree, the file's shared
// analysis indices, and a reporter/helpers pair scoped to this particular rule.
type RuleContext struct {
	AST         *syntax.Node
	FilePath    string
	Source      string
	Language    string
	Analysis    *analysis.Analysis
	SourceIndex *sourceindex.Index
	Reporter    *report.ScopedReporter
	Helpers     Helpers
	Messages    messages.Provider

	fileReporter *report.Reporter
}

// CreateContext builds the indices shared by every rule that will run against this file: the
// source index and the one-pass analysis. The returned context is a template — RunRules derives
// a scoped copy of it per rule, each carrying its own reporter and helpers.
func CreateContext(tree *syntax.Tree, filePath, source, language string, fileReporter *report.Reporter, provider messages.Provider) *RuleContext {
	return &RuleContext{
		AST:          tree.Root,
		FilePath:     filePath,
		Source:       source,
		Language:     language,
		Analysis:     analysis.Analyze(tree.Root),
		SourceIndex:  sourceindex.Build(source, tree.ModuleStart),
		Messages:     provider,
		fileReporter: fileReporter,
	}
}

// forRule returns a shallow copy of ctx scoped to a single rule's reporter and helpers.
func (ctx *RuleContext) forRule(rule Rule) *RuleContext {
	scoped := ctx.fileReporter.ForRule(rule.Name, rule.Tag, rule.Severity)
	clone := *ctx
	clone.Reporter = scoped
	clone.Helpers = Helpers{imports: ctx.Analysis.Imports, reporter: scoped}
	return &clone
}

// RunRules executes rules in list order against ctx, isolating each rule's failures: a panicking
// rule produces a notification instead of failing the file. It returns the file's flushed
// FileScanResult and any rule-execution-failure notifications collected along the way.
func RunRules(ctx *RuleContext, rules []Rule) (model.FileScanResult, []model.Notification) {
	var notifications []model.Notification

	for _, rule := range rules {
		ruleCtx := ctx.forRule(rule)
		runOne(ruleCtx, rule, ctx, &notifications)
	}

	return ctx.fileReporter.Flush(), notifications
}

func runOne(ruleCtx *RuleContext, rule Rule, fileCtx *RuleContext, notifications *[]model.Notification) {
	defer func() {
		if p := recover(); p != nil {
			*notifications = append(*notifications, model.Notification{
				Level:   model.LevelError,
				Message: fileCtx.Messages.RuleExecutionFailed(rule.Name, fileCtx.FilePath),
				Detail:  fmt.Sprint(p),
			})
		}
	}()
	rule.Run(ruleCtx)
}

// Helpers is the rule-facing convenience surface bound into each RuleContext: the file's static
// import list, relative-path classification, and the normalising violation reporter.
type Helpers struct {
	imports  []analysis.ImportReference
	reporter *report.ScopedReporter
}

// Imports returns the file's recorded import/require/dynamic-import references.
func (h Helpers) Imports() []analysis.ImportReference {
	return h.imports
}

// IsRelativePath reports whether specifier starts with ".".
func (h Helpers) IsRelativePath(specifier string) bool {
	return strings.HasPrefix(specifier, ".")
}

// RelativeDepth counts literal "../" occurrences in specifier. This overcounts paths like
// "./a/../b", but that is the behaviour spec.md §9 explicitly preserves rather than "fixes".
func (h Helpers) RelativeDepth(specifier string) int {
	return strings.Count(specifier, "../")
}

// ReportViolation normalises input and records it through the rule's scoped reporter. fallbackSpan
// is used when input carries no span of its own.
func (h Helpers) ReportViolation(input ViolationInput, fallbackSpan *syntax.Span) {
	span := input.span
	if span == nil {
		span = fallbackSpan
	}
	h.reporter.Record(report.RecordInput{
		Description: input.description,
		Code:        input.code,
		Suggestions: input.suggestions,
		Span:        span,
		Line:        input.line,
	})
}

// ViolationInput is the normalised form of a rule's violation report: spec.md §9 models rule
// output as "either a raw string or a structured payload", collapsed here into a single sum type
// built through Message/Violation and chained With* options.
type ViolationInput struct {
	description string
	code        string
	suggestions []model.Suggestion
	span        *syntax.Span
	line        *int
}

// Message builds a ViolationInput carrying only a message, the string arm of the sum type.
func Message(description string) ViolationInput {
	return ViolationInput{description: description}
}

// Violation builds a ViolationInput meant to be extended with With* options.
func Violation(description string) ViolationInput {
	return ViolationInput{description: description}
}

// WithCode attaches the violation's code field (e.g. the offending specifier or method name).
func (v ViolationInput) WithCode(code string) ViolationInput {
	v.code = code
	return v
}

// WithSuggestions attaches remediation suggestions.
func (v ViolationInput) WithSuggestions(suggestions ...model.Suggestion) ViolationInput {
	v.suggestions = suggestions
	return v
}

// WithSpan attaches an explicit span, used to derive the reported line.
func (v ViolationInput) WithSpan(span syntax.Span) ViolationInput {
	v.span = &span
	return v
}

// WithLine attaches an explicit line, taking precedence over any span.
func (v ViolationInput) WithLine(line int) ViolationInput {
	v.line = &line
	return v
}
