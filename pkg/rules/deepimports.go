package rules

import (
	"fmt"
	"strings"

	"autocr/pkg/model"
	"autocr/pkg/rule"
)

const maxRelativeImportDepth = 2

// NoDeepRelativeImports flags a relative import specifier that climbs more than two directories,
// suggesting a path alias or an aggregate export instead.
var NoDeepRelativeImports = rule.Rule{
	Name:     "no-deep-relative-imports",
	Tag:      "base",
	Severity: model.SeverityWarning,
	Run:      runNoDeepRelativeImports,
}

func runNoDeepRelativeImports(ctx *rule.RuleContext) {
	for _, imp := range ctx.Helpers.Imports() {
		if !ctx.Helpers.IsRelativePath(imp.Value) {
			continue
		}

		depth := ctx.Helpers.RelativeDepth(imp.Value)
		if depth <= maxRelativeImportDepth {
			continue
		}

		line := ctx.SourceIndex.LineOfByte(ctx.Source, imp.Span.Start)
		if fallback := findImportLine(ctx.Source, imp.Value); fallback > line {
			line = fallback
		}

		ctx.Helpers.ReportViolation(
			rule.Violation(fmt.Sprintf("relative import %q reaches %d directories up", imp.Value, depth)).
				WithCode(imp.Value).
				WithLine(line).
				WithSuggestions(
					model.Suggestion{Text: "use a path alias instead of a deep relative import"},
					model.Suggestion{Text: "re-export the target from a nearer aggregate module"},
				),
			nil,
		)
	}
}

// findImportLine locates the first source line containing both the literal token "import" and
// specifier, a fallback for when the specifier's own span points inside a leading comment.
func findImportLine(source, specifier string) int {
	for i, line := range strings.Split(source, "\n") {
		if strings.Contains(line, "import") && strings.Contains(line, specifier) {
			return i + 1
		}
	}
	return 0
}
