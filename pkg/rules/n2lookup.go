package rules

import (
	"fmt"

	"autocr/pkg/model"
	"autocr/pkg/rule"
	"autocr/pkg/syntax"
)

// linearScanMethods are array methods that perform an O(n) scan per call; used repeatedly inside
// a loop, they degrade the surrounding loop to O(n^2) without any type inference required.
var linearScanMethods = map[string]bool{
	"find":        true,
	"findIndex":   true,
	"filter":      true,
	"some":        true,
	"every":       true,
	"includes":    true,
	"indexOf":     true,
	"lastIndexOf": true,
}

// NoN2ArrayLookup flags a hot-path call to an array method that performs a linear scan, a common
// cause of accidental O(n^2) behaviour. No receiver-type inference is attempted: any member call
// with a matching method name is flagged.
var NoN2ArrayLookup = rule.Rule{
	Name:     "no-n2-array-lookup",
	Tag:      "performance",
	Severity: model.SeverityOptimizing,
	Run:      runNoN2ArrayLookup,
}

func runNoN2ArrayLookup(ctx *rule.RuleContext) {
	for _, call := range ctx.Analysis.HotPath.CallExpressions {
		callee := call.Callee
		if callee == nil || callee.Kind != syntax.KindMemberExpression || callee.Property == nil {
			continue
		}
		method := callee.Property.Value
		if !linearScanMethods[method] {
			continue
		}
		ctx.Helpers.ReportViolation(
			rule.Message(fmt.Sprintf("array method %q performs a linear scan inside a hot path", method)).
				WithCode(method).
				WithSpan(call.Span),
			nil,
		)
	}
}
