package rules

import (
	"strings"

	"autocr/pkg/model"
	"autocr/pkg/rule"
	"autocr/pkg/syntax"
)

// NoSwallowedErrors flags a try statement in which neither the catch block nor the finally block
// (whichever of them exist) contains an executable statement.
var NoSwallowedErrors = rule.Rule{
	Name:     "no-swallowed-errors",
	Tag:      "base",
	Severity: model.SeverityWarning,
	Run:      runNoSwallowedErrors,
}

func runNoSwallowedErrors(ctx *rule.RuleContext) {
	for _, tryStmt := range ctx.Analysis.TryStatements {
		var catchBlock, finallyBlock *syntax.Node
		if tryStmt.Handler != nil {
			catchBlock = tryStmt.Handler.Body
		}
		finallyBlock = tryStmt.Finalizer

		if hasExecutableStatements(catchBlock) || hasExecutableStatements(finallyBlock) {
			continue
		}

		target, keyword := swallowedTarget(tryStmt, catchBlock, finallyBlock)

		line := ctx.SourceIndex.LineOfByte(ctx.Source, target.Span.Start)
		if fallback := findKeywordLineFrom(ctx.Source, line, keyword); fallback > line {
			line = fallback
		}

		ctx.Helpers.ReportViolation(
			rule.Message("caught error is swallowed: neither the catch nor the finally block runs any statement").
				WithLine(line),
			nil,
		)
	}
}

// swallowedTarget picks the node the violation points at, per spec.md §4.4.3: the catch block if
// present, else the finally block, else the try statement itself.
func swallowedTarget(tryStmt, catchBlock, finallyBlock *syntax.Node) (*syntax.Node, string) {
	switch {
	case catchBlock != nil:
		return catchBlock, "catch"
	case finallyBlock != nil:
		return finallyBlock, "finally"
	default:
		return tryStmt, "try"
	}
}

// hasExecutableStatements reports whether block contains at least one statement that is not an
// empty statement, and not a block containing only empty statements (recursively).
func hasExecutableStatements(block *syntax.Node) bool {
	if block == nil {
		return false
	}
	for _, stmt := range block.Children {
		if !isEmptyStatement(stmt) {
			return true
		}
	}
	return false
}

func isEmptyStatement(n *syntax.Node) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case syntax.KindEmptyStatement:
		return true
	case syntax.KindBlockStatement:
		return !hasExecutableStatements(n)
	default:
		return false
	}
}

// findKeywordLineFrom scans source lines starting at fromLine (1-based, inclusive) for the first
// line containing keyword as a literal token, returning its line number or 0 if not found.
func findKeywordLineFrom(source string, fromLine int, keyword string) int {
	lines := strings.Split(source, "\n")
	start := fromLine - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < len(lines); i++ {
		if strings.Contains(lines[i], keyword) {
			return i + 1
		}
	}
	return 0
}
