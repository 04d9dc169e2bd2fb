package rules

import (
	"autocr/pkg/resolve"
	"autocr/pkg/rule"
)

// Builtins returns the built-in rule set, constructed fresh for resolver. Every rule but
// no-circular-dependencies is a stateless package-level Rule value; that one rule carries a
// resolver-backed cycle search, so it is instantiated here rather than shared across workers.
func Builtins(resolver *resolve.Resolver, projectRoot string) []rule.Rule {
	return []rule.Rule{
		NoDeepRelativeImports,
		NoSwallowedErrors,
		NoCatastrophicRegex,
		NoDeepCloneInLoop,
		NoN2ArrayLookup,
		NewNoCircularDependencies(resolver, projectRoot),
	}
}
