package rules

import (
	"autocr/pkg/report"
	"autocr/pkg/rule"
	"autocr/pkg/syntax"
)

type stubProvider struct{}

func (stubProvider) TagLabel(tag string) string         { return tag }
func (stubProvider) SeverityIcon(severity string) string { return "" }
func (stubProvider) SuggestionLabel() string             { return "Suggestion" }
func (stubProvider) SuggestionSeparator() string         { return ", " }
func (stubProvider) RuleExecutionFailed(name, file string) string {
	return "rule execution failed: " + name + " at " + file
}

// runRule builds a RuleContext over root/source and runs a single rule against it, returning the
// resulting violations.
func runRule(r rule.Rule, root *syntax.Node, source string) []string {
	tree := &syntax.Tree{Root: root}
	reporter := report.New("a.ts", source, nil, false, stubProvider{})
	ctx := rule.CreateContext(tree, "a.ts", source, "typescript", reporter, stubProvider{})
	result, _ := rule.RunRules(ctx, []rule.Rule{r})

	codes := make([]string, len(result.Violations))
	for i, v := range result.Violations {
		codes[i] = v.Code
	}
	return codes
}

func runRuleFull(r rule.Rule, root *syntax.Node, source string) ([]violationSummary, []string) {
	tree := &syntax.Tree{Root: root}
	reporter := report.New("a.ts", source, nil, false, stubProvider{})
	ctx := rule.CreateContext(tree, "a.ts", source, "typescript", reporter, stubProvider{})
	result, notifications := rule.RunRules(ctx, []rule.Rule{r})

	summaries := make([]violationSummary, len(result.Violations))
	for i, v := range result.Violations {
		summaries[i] = violationSummary{Code: v.Code, Line: v.Line, Message: v.Message}
	}
	notes := make([]string, len(notifications))
	for i, n := range notifications {
		notes[i] = n.Message
	}
	return summaries, notes
}

type violationSummary struct {
	Code    string
	Line    int
	Message string
}

func block(children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindBlockStatement, Children: children}
}

func ident(name string) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindIdentifier, Value: name}
}

func str(value string) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindStringLiteral, Value: value}
}

func call(callee *syntax.Node, args ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindCallExpression, Callee: callee, Arguments: args}
}

func newExpr(callee *syntax.Node, args ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindNewExpression, Callee: callee, Arguments: args}
}

func member(object *syntax.Node, property string) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindMemberExpression, Object: object, Property: ident(property)}
}

func regex(pattern string) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindRegExpLiteral, Value: pattern}
}

func forLoop(body *syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindForStatement, Body: body}
}

func importDecl(specifier string, span syntax.Span) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindImportDeclaration, Value: specifier, Span: span}
}
