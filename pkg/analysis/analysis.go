// Package analysis implements the one-pass syntax-tree walk (spec.md §4.2, C2) that produces the
// shared indices every rule reads: imports, loops, try statements, and the hot-path triple of
// call/new expressions and regex literals. One Analysis is built per file per scan and is
// immutable once returned.
package analysis

import "autocr/pkg/syntax"

// ImportKind classifies how a module specifier was referenced.
type ImportKind string

const (
	ImportStatic  ImportKind = "static"
	ImportDynamic ImportKind = "dynamic"
	ImportRequire ImportKind = "require"
)

// ImportReference is a single import/require/dynamic-import specifier found in a file, recorded
// in source order.
type ImportReference struct {
	Kind  ImportKind
	Value string
	Span  syntax.Span
}

// LoopKind names the loop construct a LoopRecord was found in.
type LoopKind string

const (
	LoopFor   LoopKind = "for"
	LoopWhile LoopKind = "while"
	LoopDo    LoopKind = "do-while"
	LoopForIn LoopKind = "for-in"
	LoopForOf LoopKind = "for-of"
)

// LoopRecord is a single loop node found during the walk.
type LoopRecord struct {
	Kind LoopKind
	Node *syntax.Node
}

// HotPath collects the call expressions, new expressions, and regex literals found while the
// walk's hot flag was set: loop bodies (and, for C-style loops, their test/update clauses), and
// the first-argument callback body of a recognised hot array method.
type HotPath struct {
	CallExpressions []*syntax.Node
	NewExpressions  []*syntax.Node
	RegExpLiterals  []*syntax.Node
}

// Analysis is the immutable, ordered output of a single-pass walk over a file's syntax tree.
type Analysis struct {
	Imports       []ImportReference
	Loops         []LoopRecord
	TryStatements []*syntax.Node
	HotPath       HotPath
}

// hotMethods is the set of array higher-order method names whose first-argument callback body is
// considered a hot path, per spec.md §3's Analysis data model.
var hotMethods = map[string]bool{
	"map":         true,
	"forEach":     true,
	"reduce":      true,
	"reduceRight": true,
	"filter":      true,
	"some":        true,
	"every":       true,
	"find":        true,
	"findIndex":   true,
	"flatMap":     true,
}

// Analyze runs the one-pass walk over root and returns the resulting indices.
func Analyze(root *syntax.Node) *Analysis {
	a := &Analysis{}
	walk(root, false, a)
	return a
}

func walk(n *syntax.Node, inHot bool, a *Analysis) {
	if n == nil {
		return
	}

	switch n.Kind {
	case syntax.KindImportDeclaration:
		a.Imports = append(a.Imports, ImportReference{
			Kind:  ImportStatic,
			Value: n.Value,
			Span:  n.Span,
		})
		return // do not descend: the specifier has already been captured in full.

	case syntax.KindCallExpression:
		walkCall(n, inHot, a)
		return

	case syntax.KindNewExpression:
		if inHot {
			a.HotPath.NewExpressions = append(a.HotPath.NewExpressions, n)
		}
		walk(n.Callee, inHot, a)
		for _, arg := range n.Arguments {
			walk(arg, inHot, a)
		}
		return

	case syntax.KindRegExpLiteral:
		if inHot {
			a.HotPath.RegExpLiterals = append(a.HotPath.RegExpLiterals, n)
		}
		return

	case syntax.KindTryStatement:
		a.TryStatements = append(a.TryStatements, n)
		walk(n.Body, inHot, a)
		walk(n.Handler, inHot, a)
		walk(n.Finalizer, inHot, a)
		return

	case syntax.KindCatchClause:
		walk(n.Body, inHot, a)
		return

	case syntax.KindMemberExpression:
		// Named fields, not generic Children: a regex literal or call reached only as the
		// object of a member expression (e.g. `/pattern/.test(x)`, `arr[i]`) must still be
		// visited under the caller's inHot flag.
		walk(n.Object, inHot, a)
		walk(n.Property, inHot, a)
		return

	case syntax.KindForStatement:
		a.Loops = append(a.Loops, LoopRecord{Kind: LoopFor, Node: n})
		walk(n.Init, inHot, a) // initialisers do not propagate hot
		walk(n.Test, true, a)
		walk(n.Update, true, a)
		walk(n.Body, true, a)
		return

	case syntax.KindForInStatement:
		a.Loops = append(a.Loops, LoopRecord{Kind: LoopForIn, Node: n})
		walk(n.Left, inHot, a)
		walk(n.Right, inHot, a)
		walk(n.Body, true, a)
		return

	case syntax.KindForOfStatement:
		a.Loops = append(a.Loops, LoopRecord{Kind: LoopForOf, Node: n})
		walk(n.Left, inHot, a)
		walk(n.Right, inHot, a)
		walk(n.Body, true, a)
		return

	case syntax.KindWhileStatement:
		a.Loops = append(a.Loops, LoopRecord{Kind: LoopWhile, Node: n})
		walk(n.Test, true, a)
		walk(n.Body, true, a)
		return

	case syntax.KindDoWhileStatement:
		a.Loops = append(a.Loops, LoopRecord{Kind: LoopDo, Node: n})
		walk(n.Body, true, a)
		walk(n.Test, true, a)
		return

	case syntax.KindFunctionDeclaration, syntax.KindFunctionExpression, syntax.KindArrowFunctionExpression:
		// A function reached through ordinary descent is not itself a recognised hot callback
		// (that case is handled directly in walkCall, which never reaches here for the callback
		// node): its body always starts fresh, non-hot.
		walkFunctionBody(n, false, a)
		return

	default:
		for _, child := range n.Children {
			walk(child, inHot, a)
		}
	}
}

// walkFunctionBody descends into a function node's parameters (never hot) and body (hot iff
// bodyHot, set to true only by walkCall when this function is a recognised hot-method callback).
func walkFunctionBody(fn *syntax.Node, bodyHot bool, a *Analysis) {
	for _, p := range fn.Params {
		walk(p, false, a)
	}
	walk(fn.Body, bodyHot, a)
}

// isFunctionNode reports whether n is a function declaration, function expression, or arrow
// function expression.
func isFunctionNode(n *syntax.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case syntax.KindFunctionDeclaration, syntax.KindFunctionExpression, syntax.KindArrowFunctionExpression:
		return true
	default:
		return false
	}
}

// isHotMethodCallee reports whether callee is a member expression whose property is one of the
// array higher-order methods listed in hotMethods, e.g. arr.map / arr.forEach.
func isHotMethodCallee(callee *syntax.Node) bool {
	if callee == nil || callee.Kind != syntax.KindMemberExpression || callee.Property == nil {
		return false
	}
	return hotMethods[callee.Property.Value]
}

// isRequireCallee reports whether callee is the require identifier itself, or a member expression
// on require (e.g. require.resolve).
func isRequireCallee(callee *syntax.Node) bool {
	if callee == nil {
		return false
	}
	if callee.Kind == syntax.KindIdentifier && callee.Value == "require" {
		return true
	}
	if callee.Kind == syntax.KindMemberExpression && callee.Object != nil {
		return callee.Object.Kind == syntax.KindIdentifier && callee.Object.Value == "require"
	}
	return false
}

// isDynamicImportCallee reports whether callee is the synthetic "import" identifier jsscan emits
// for a dynamic import(...) expression.
func isDynamicImportCallee(callee *syntax.Node) bool {
	return callee != nil && callee.Kind == syntax.KindIdentifier && callee.Value == "import"
}

// literalValue returns the decoded text of arg if it is a string literal or a template literal
// with no interpolations, and ok=true. Otherwise ok is false: the specifier could not be resolved
// statically.
func literalValue(arg *syntax.Node) (string, bool) {
	if arg == nil {
		return "", false
	}
	switch arg.Kind {
	case syntax.KindStringLiteral:
		return arg.Value, true
	case syntax.KindTemplateLiteral:
		if arg.Value != "" {
			return arg.Value, true
		}
		return "", false
	default:
		return "", false
	}
}

// walkCall handles a CallExpression: hot-path recording, dynamic import / require detection, and
// dispatch of the first argument as a forced-hot callback body when the callee is a recognised
// array higher-order method.
func walkCall(n *syntax.Node, inHot bool, a *Analysis) {
	if inHot {
		a.HotPath.CallExpressions = append(a.HotPath.CallExpressions, n)
	}

	switch {
	case isDynamicImportCallee(n.Callee):
		if len(n.Arguments) > 0 {
			if value, ok := literalValue(n.Arguments[0]); ok {
				a.Imports = append(a.Imports, ImportReference{
					Kind:  ImportDynamic,
					Value: value,
					Span:  n.Arguments[0].Span,
				})
			}
		}
	case isRequireCallee(n.Callee):
		if len(n.Arguments) > 0 {
			if value, ok := literalValue(n.Arguments[0]); ok {
				a.Imports = append(a.Imports, ImportReference{
					Kind:  ImportRequire,
					Value: value,
					Span:  n.Arguments[0].Span,
				})
			}
		}
	}

	walk(n.Callee, inHot, a)

	if isHotMethodCallee(n.Callee) && len(n.Arguments) > 0 {
		first := n.Arguments[0]
		if isFunctionNode(first) {
			walkFunctionBody(first, true, a)
		} else {
			walk(first, inHot, a)
		}
		for _, arg := range n.Arguments[1:] {
			walk(arg, inHot, a)
		}
		return
	}

	for _, arg := range n.Arguments {
		walk(arg, inHot, a)
	}
}
