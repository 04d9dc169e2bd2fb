package analysis

import (
	"testing"

	"autocr/pkg/syntax"
)

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

func member(object *syntax.Node, property string) *syntax.Node {
	return &syntax.Node{
		Kind:     syntax.KindMemberExpression,
		Object:   object,
		Property: ident(property),
	}
}

func arrowFn(body *syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindArrowFunctionExpression, Body: body}
}

func TestAnalyzeStaticImport(t *testing.T) {
	specifier := &syntax.Node{Kind: syntax.KindStringLiteral, Value: "../../lib/util", Span: syntax.Span{Start: 10, End: 26}}
	decl := &syntax.Node{Kind: syntax.KindImportDeclaration, Value: specifier.Value, Span: specifier.Span}
	root := block(decl)

	a := Analyze(root)
	if len(a.Imports) != 1 {
		t.Fatalf("len(Imports) = %d, want 1", len(a.Imports))
	}
	got := a.Imports[0]
	if got.Kind != ImportStatic || got.Value != "../../lib/util" || got.Span != specifier.Span {
		t.Errorf("Imports[0] = %+v, want static ../../lib/util at %v", got, specifier.Span)
	}
}

func TestAnalyzeRequireImport(t *testing.T) {
	specifier := str("./sibling")
	requireCall := call(ident("require"), specifier)
	root := block(requireCall)

	a := Analyze(root)
	if len(a.Imports) != 1 || a.Imports[0].Kind != ImportRequire || a.Imports[0].Value != "./sibling" {
		t.Fatalf("Imports = %+v, want one require ./sibling", a.Imports)
	}
}

func TestAnalyzeRequireResolveImport(t *testing.T) {
	specifier := str("./sibling")
	resolveCall := call(member(ident("require"), "resolve"), specifier)
	root := block(resolveCall)

	a := Analyze(root)
	if len(a.Imports) != 1 || a.Imports[0].Kind != ImportRequire {
		t.Fatalf("Imports = %+v, want one require import via require.resolve", a.Imports)
	}
}

func TestAnalyzeDynamicImport(t *testing.T) {
	specifier := str("./lazy")
	dynImport := call(ident("import"), specifier)
	root := block(dynImport)

	a := Analyze(root)
	if len(a.Imports) != 1 || a.Imports[0].Kind != ImportDynamic || a.Imports[0].Value != "./lazy" {
		t.Fatalf("Imports = %+v, want one dynamic import of ./lazy", a.Imports)
	}
}

func TestAnalyzeDynamicImportWithoutLiteralArgumentIsSkipped(t *testing.T) {
	dynImport := call(ident("import"), ident("path")) // variable, not a literal specifier
	root := block(dynImport)

	a := Analyze(root)
	if len(a.Imports) != 0 {
		t.Fatalf("Imports = %+v, want none (non-literal specifier)", a.Imports)
	}
}

func TestAnalyzeTryStatementNested(t *testing.T) {
	inner := &syntax.Node{Kind: syntax.KindTryStatement, Body: block()}
	outer := &syntax.Node{Kind: syntax.KindTryStatement, Body: block(inner)}

	a := Analyze(outer)
	if len(a.TryStatements) != 2 {
		t.Fatalf("len(TryStatements) = %d, want 2 (outer + nested)", len(a.TryStatements))
	}
	if a.TryStatements[0] != outer || a.TryStatements[1] != inner {
		t.Errorf("TryStatements recorded out of source order")
	}
}

func TestAnalyzeLoopKinds(t *testing.T) {
	forStmt := &syntax.Node{Kind: syntax.KindForStatement, Body: block()}
	whileStmt := &syntax.Node{Kind: syntax.KindWhileStatement, Test: ident("cond"), Body: block()}
	doStmt := &syntax.Node{Kind: syntax.KindDoWhileStatement, Body: block(), Test: ident("cond")}
	forIn := &syntax.Node{Kind: syntax.KindForInStatement, Left: ident("k"), Right: ident("obj"), Body: block()}
	forOf := &syntax.Node{Kind: syntax.KindForOfStatement, Left: ident("v"), Right: ident("arr"), Body: block()}

	root := block(forStmt, whileStmt, doStmt, forIn, forOf)
	a := Analyze(root)

	want := []LoopKind{LoopFor, LoopWhile, LoopDo, LoopForIn, LoopForOf}
	if len(a.Loops) != len(want) {
		t.Fatalf("len(Loops) = %d, want %d", len(a.Loops), len(want))
	}
	for i, k := range want {
		if a.Loops[i].Kind != k {
			t.Errorf("Loops[%d].Kind = %s, want %s", i, a.Loops[i].Kind, k)
		}
	}
}

func TestAnalyzeLoopBodyIsHotButInitIsNot(t *testing.T) {
	initCall := call(ident("setup"))
	bodyCall := call(ident("work"))
	forStmt := &syntax.Node{
		Kind: syntax.KindForStatement,
		Init: initCall,
		Body: block(bodyCall),
	}

	a := Analyze(forStmt)
	if containsNode(a.HotPath.CallExpressions, initCall) {
		t.Errorf("loop initializer call recorded as hot")
	}
	if !containsNode(a.HotPath.CallExpressions, bodyCall) {
		t.Errorf("loop body call not recorded as hot")
	}
}

func TestAnalyzeWhileTestIsHot(t *testing.T) {
	testCall := call(ident("hasNext"))
	whileStmt := &syntax.Node{Kind: syntax.KindWhileStatement, Test: testCall, Body: block()}

	a := Analyze(whileStmt)
	if !containsNode(a.HotPath.CallExpressions, testCall) {
		t.Errorf("while-test call not recorded as hot")
	}
}

func TestAnalyzeRegexOutsideLoopIsNotHot(t *testing.T) {
	regex := &syntax.Node{Kind: syntax.KindRegExpLiteral, Value: "abc"}
	root := block(regex)

	a := Analyze(root)
	if len(a.HotPath.RegExpLiterals) != 0 {
		t.Errorf("RegExpLiterals = %v, want none (not in a hot path)", a.HotPath.RegExpLiterals)
	}
}

func TestAnalyzeRegexInsideLoopIsHot(t *testing.T) {
	regex := &syntax.Node{Kind: syntax.KindRegExpLiteral, Value: "abc"}
	forStmt := &syntax.Node{Kind: syntax.KindForStatement, Body: block(regex)}

	a := Analyze(forStmt)
	if len(a.HotPath.RegExpLiterals) != 1 || a.HotPath.RegExpLiterals[0] != regex {
		t.Fatalf("RegExpLiterals = %v, want [regex]", a.HotPath.RegExpLiterals)
	}
}

func TestAnalyzeHotMethodCallbackBodyIsHot(t *testing.T) {
	innerCall := call(ident("transform"))
	callback := arrowFn(block(innerCall))
	mapCall := call(member(ident("items"), "map"), callback)
	root := block(mapCall)

	a := Analyze(root)
	if !containsNode(a.HotPath.CallExpressions, innerCall) {
		t.Errorf("call inside .map callback not recorded as hot")
	}
	if containsNode(a.HotPath.CallExpressions, mapCall) {
		t.Errorf("the .map call itself is not hot here: it sits at top level, outside any loop")
	}
}

func TestAnalyzeHotMethodCallbackBodyIsHotEvenWhenTheCallItselfIsNot(t *testing.T) {
	innerCall := call(ident("transform"))
	callback := arrowFn(block(innerCall))
	mapCall := call(member(ident("items"), "map"), callback)
	root := block(mapCall) // mapCall itself is at top level, not inside any loop

	a := Analyze(root)
	if containsNode(a.HotPath.CallExpressions, mapCall) {
		t.Errorf(".map call at top level should not itself be hot")
	}
	if !containsNode(a.HotPath.CallExpressions, innerCall) {
		t.Errorf("call inside .map callback should be hot regardless of the outer call's own hotness")
	}
}

func TestAnalyzeNonFirstArgumentOfHotMethodIsNotForcedHot(t *testing.T) {
	otherArgCall := call(ident("sideEffect"))
	callback := arrowFn(block())
	reduceCall := call(member(ident("items"), "reduce"), callback, otherArgCall)
	root := block(reduceCall)

	a := Analyze(root)
	if containsNode(a.HotPath.CallExpressions, otherArgCall) {
		t.Errorf("second argument of .reduce should not be forced hot")
	}
}

func TestAnalyzeFunctionBoundaryResetsHot(t *testing.T) {
	// A plain function declared inside a loop body is not itself a hot-method callback: calls
	// inside it must not be recorded as hot.
	innerCall := call(ident("helper"))
	nestedFn := &syntax.Node{Kind: syntax.KindFunctionExpression, Body: block(innerCall)}
	forStmt := &syntax.Node{Kind: syntax.KindForStatement, Body: block(nestedFn)}

	a := Analyze(forStmt)
	if containsNode(a.HotPath.CallExpressions, innerCall) {
		t.Errorf("call inside a plain nested function should not inherit the loop's hot flag")
	}
}

func TestAnalyzeNestedFunctionInsideHotCallbackResetsAgain(t *testing.T) {
	// Inside a .map callback (forced hot), a further plain nested function should reset hot for
	// its own body, even though the callback itself is hot.
	deepCall := call(ident("deep"))
	nestedFn := &syntax.Node{Kind: syntax.KindFunctionExpression, Body: block(deepCall)}
	callback := arrowFn(block(nestedFn))
	mapCall := call(member(ident("items"), "map"), callback)

	a := Analyze(mapCall)
	if containsNode(a.HotPath.CallExpressions, deepCall) {
		t.Errorf("call inside a function nested within a hot callback should not itself be hot")
	}
}

func TestAnalyzeNewExpressionHotOnlyInLoop(t *testing.T) {
	topLevelNew := &syntax.Node{Kind: syntax.KindNewExpression, Callee: ident("Widget")}
	loopNew := &syntax.Node{Kind: syntax.KindNewExpression, Callee: ident("Widget")}
	forStmt := &syntax.Node{Kind: syntax.KindForStatement, Body: block(loopNew)}
	root := block(topLevelNew, forStmt)

	a := Analyze(root)
	if containsNode(a.HotPath.NewExpressions, topLevelNew) {
		t.Errorf("top-level new expression recorded as hot")
	}
	if !containsNode(a.HotPath.NewExpressions, loopNew) {
		t.Errorf("loop-body new expression not recorded as hot")
	}
}

func containsNode(haystack []*syntax.Node, needle *syntax.Node) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}
	return false
}
