package rules

import (
	"autocr/pkg/model"
	"autocr/pkg/rule"
	"autocr/pkg/syntax"
)

// NoDeepCloneInLoop flags a hot-path structuredClone(...) or JSON.parse(JSON.stringify(...))
// call, both of which serialise an entire object graph on every iteration.
var NoDeepCloneInLoop = rule.Rule{
	Name:     "no-deep-clone-in-loop",
	Tag:      "performance",
	Severity: model.SeverityOptimizing,
	Run:      runNoDeepCloneInLoop,
}

func runNoDeepCloneInLoop(ctx *rule.RuleContext) {
	for _, call := range ctx.Analysis.HotPath.CallExpressions {
		switch {
		case isStructuredCloneCall(call):
			reportHotPathCall(ctx, call, "deep clone inside a hot path", "structuredClone(...)")
		case isJSONRoundTrip(call):
			reportHotPathCall(ctx, call, "deep clone inside a hot path", "JSON.parse(JSON.stringify(...))")
		}
	}
}

func isStructuredCloneCall(call *syntax.Node) bool {
	callee := call.Callee
	if callee == nil {
		return false
	}
	if callee.Kind == syntax.KindIdentifier && callee.Value == "structuredClone" {
		return true
	}
	return isMemberCall(call, "globalThis", "structuredClone")
}

func isJSONRoundTrip(call *syntax.Node) bool {
	if !isMemberCall(call, "JSON", "parse") || len(call.Arguments) == 0 {
		return false
	}
	inner := call.Arguments[0]
	return inner.Kind == syntax.KindCallExpression && isMemberCall(inner, "JSON", "stringify")
}

// isMemberCall reports whether call's callee is the member expression object.property.
func isMemberCall(call *syntax.Node, object, property string) bool {
	callee := call.Callee
	if callee == nil || callee.Kind != syntax.KindMemberExpression {
		return false
	}
	return callee.Object != nil && callee.Object.Kind == syntax.KindIdentifier && callee.Object.Value == object &&
		callee.Property != nil && callee.Property.Value == property
}

func reportHotPathCall(ctx *rule.RuleContext, node *syntax.Node, message, code string) {
	ctx.Helpers.ReportViolation(
		rule.Message(message).WithCode(code).WithSpan(node.Span),
		nil,
	)
}
