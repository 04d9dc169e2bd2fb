package rules

import (
	"autocr/pkg/model"
	"autocr/pkg/rule"
	"autocr/pkg/syntax"
)

// NoCatastrophicRegex flags a hot-path regular expression whose pattern contains nested unbounded
// quantifiers (e.g. "(a+)+"), a common source of exponential-time backtracking.
var NoCatastrophicRegex = rule.Rule{
	Name:     "no-catastrophic-regex",
	Tag:      "performance",
	Severity: model.SeverityOptimizing,
	Run:      runNoCatastrophicRegex,
}

func runNoCatastrophicRegex(ctx *rule.RuleContext) {
	for _, lit := range ctx.Analysis.HotPath.RegExpLiterals {
		checkRegexPattern(ctx, lit, lit.RegexPattern())
	}
	for _, call := range ctx.Analysis.HotPath.CallExpressions {
		if pattern, ok := regExpConstructorPattern(call); ok {
			checkRegexPattern(ctx, call, pattern)
		}
	}
	for _, newExpr := range ctx.Analysis.HotPath.NewExpressions {
		if pattern, ok := regExpConstructorPattern(newExpr); ok {
			checkRegexPattern(ctx, newExpr, pattern)
		}
	}
}

func checkRegexPattern(ctx *rule.RuleContext, node *syntax.Node, pattern string) {
	if !hasCatastrophicQuantifier(pattern) {
		return
	}
	ctx.Helpers.ReportViolation(
		rule.Message("regular expression contains nested unbounded quantifiers and may backtrack catastrophically").
			WithCode(pattern).
			WithSpan(node.Span),
		nil,
	)
}

// regExpConstructorPattern extracts the static pattern from a RegExp(...) call or new RegExp(...)
// expression: callee identifier "RegExp" with a literal first argument, per spec.md §4.4.4.
func regExpConstructorPattern(node *syntax.Node) (string, bool) {
	if node.Callee == nil || node.Callee.Kind != syntax.KindIdentifier || node.Callee.Value != "RegExp" {
		return "", false
	}
	if len(node.Arguments) == 0 {
		return "", false
	}
	return literalPattern(node.Arguments[0])
}

func literalPattern(arg *syntax.Node) (string, bool) {
	switch arg.Kind {
	case syntax.KindStringLiteral:
		return arg.Value, true
	case syntax.KindTemplateLiteral:
		if arg.Value != "" {
			return arg.Value, true
		}
	}
	return "", false
}
