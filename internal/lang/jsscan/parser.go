package jsscan

import (
	"fmt"

	"autocr/pkg/syntax"
)

// Parser is a recursive-descent JavaScript/TypeScript parser, pragmatic rather than exhaustive: it
// produces the node shapes pkg/analysis and pkg/rules consume, and degrades gracefully on syntax
// it doesn't fully model (decorators, full TS types) by skipping or flattening them rather than
// failing the whole file.
type Parser struct {
	tokens []token
	pos    int
}

// NewParser returns a Parser ready to use as a pkg/scan Options.Parser. It holds no state between
// Parse calls, so a single instance is safe to share across every worker in the pool.
func NewParser() *Parser { return &Parser{} }

// Language implements syntax.Parser.
func (p *Parser) Language() string { return "javascript" }

// Parse implements syntax.Parser. It never returns a non-nil error for malformed-but-lexable
// input — the parser resynchronises at statement boundaries instead — but converts an internal
// panic (an unexpected token shape slipping past a speculative lookahead) into an error so the
// caller sees spec.md §7's parser-failure notification rather than a crashed worker.
func (p *Parser) Parse(path string, src []byte) (tree *syntax.Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("jsscan: parse %s: %v", path, r)
		}
	}()

	np := &Parser{tokens: lex(src)}
	root := np.parseProgram()
	return &syntax.Tree{Root: root}, nil
}

func (p *Parser) peek() token {
	if p.pos >= len(p.tokens) {
		return eofToken
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return eofToken
	}
	return p.tokens[idx]
}

func (p *Parser) next() token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) checkPunct(v string) bool { return p.peek().isPunct(v) }
func (p *Parser) checkIdent(v string) bool { return p.peek().isIdent(v) }

func (p *Parser) expectPunct(v string) {
	if p.checkPunct(v) {
		p.next()
	}
}

// matchingBracket returns the token index of the bracket matching the one at openIdx (which must
// be "(", "[", or "{"), or -1 if the file ends before it closes. Pre-lexing into a random-access
// slice is what makes this a plain index walk instead of save/restore backtracking: arrow-function
// detection and TS type-argument skipping both need to look past a balanced group without
// committing to having parsed it.
func (p *Parser) matchingBracket(openIdx int) int {
	if openIdx >= len(p.tokens) {
		return -1
	}
	open := p.tokens[openIdx].raw
	var close string
	switch open {
	case "(":
		close = ")"
	case "[":
		close = "]"
	case "{":
		close = "}"
	default:
		return -1
	}
	depth := 0
	for i := openIdx; i < len(p.tokens); i++ {
		t := p.tokens[i]
		if t.kind != tokPunct {
			continue
		}
		switch t.raw {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *Parser) parseProgram() *syntax.Node {
	root := &syntax.Node{Kind: syntax.KindProgram}
	for p.peek().kind != tokEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			root.Children = append(root.Children, stmt)
		}
	}
	return root
}

func (p *Parser) parseStatement() *syntax.Node {
	t := p.peek()

	if t.kind == tokPunct && t.raw == ";" {
		start := p.next()
		return &syntax.Node{Kind: syntax.KindEmptyStatement, Span: syntax.Span{Start: start.start, End: start.end}}
	}
	if t.kind == tokPunct && t.raw == "{" {
		return p.parseBlockStatement()
	}

	if t.kind == tokIdent {
		switch t.raw {
		case "import":
			if !p.peekAhead(1).isPunct("(") {
				return p.parseImportStatement()
			}
		case "export":
			return p.parseExportStatement()
		case "try":
			return p.parseTryStatement()
		case "for":
			return p.parseForStatement()
		case "while":
			return p.parseWhileStatement()
		case "do":
			return p.parseDoWhileStatement()
		case "function":
			return p.parseFunction(true)
		case "async":
			if p.peekAhead(1).isIdent("function") {
				p.next()
				return p.parseFunction(true)
			}
		case "class":
			return p.parseClass(true)
		case "if":
			return p.parseIfStatement()
		case "return", "throw":
			return p.parseReturnOrThrow()
		case "break", "continue":
			return p.parseBreakContinue()
		case "switch":
			return p.parseSwitchStatement()
		case "var", "let", "const":
			return p.parseVarStatement(false)
		}
		// Labelled statement ("label:") is rare enough to fall through to the generic
		// expression-statement path below, which still descends through the label's child
		// statement via the trailing colon check failing harmlessly.
	}

	return p.parseExpressionStatement()
}

func (p *Parser) parseBlockStatement() *syntax.Node {
	start := p.next() // "{"
	node := &syntax.Node{Kind: syntax.KindBlockStatement, Span: syntax.Span{Start: start.start}}
	for !p.checkPunct("}") && p.peek().kind != tokEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			node.Children = append(node.Children, stmt)
		}
	}
	end := p.peek().end
	if p.checkPunct("}") {
		end = p.next().end
	}
	node.Span.End = end
	return node
}

// parseImportStatement consumes a static import statement in any of its forms (default, named,
// namespace, side-effect-only) down to its "from '<specifier>'" clause, discarding the bound
// names: pkg/analysis only ever reads the specifier off Value.
func (p *Parser) parseImportStatement() *syntax.Node {
	start := p.next() // "import"
	specifier, end := p.consumeFromClause()
	return &syntax.Node{Kind: syntax.KindImportDeclaration, Value: specifier, Span: syntax.Span{Start: start.start, End: end}}
}

// consumeFromClause skips tokens up to and including a trailing "from '<specifier>'" clause (or,
// for a bare `import '<specifier>'` side-effect import, the specifier string directly after
// "import"), stopping at the statement's terminating ";" or newline. It returns the resolved
// specifier, or "" if none was found (malformed input, tolerated rather than rejected).
func (p *Parser) consumeFromClause() (string, uint32) {
	if p.peek().kind == tokString {
		str := p.next()
		p.consumeSemicolon()
		return str.raw, str.end
	}
	specifier := ""
	end := p.peek().end
	for p.peek().kind != tokEOF && !p.checkPunct(";") {
		if p.checkIdent("from") {
			p.next()
			if p.peek().kind == tokString {
				str := p.next()
				specifier, end = str.raw, str.end
			}
			break
		}
		end = p.next().end
	}
	p.consumeSemicolon()
	return specifier, end
}

func (p *Parser) consumeSemicolon() {
	if p.checkPunct(";") {
		p.next()
	}
}

// parseExportStatement handles every export form. "export * from '...'" and
// "export {a, b} from '...'" are re-export edges and, like a static import, establish a real
// module dependency from this file to the specifier — so they are captured as ImportDeclaration
// nodes exactly like parseImportStatement's output, letting no-circular-dependencies see them.
// "export default <expr>" and "export <decl>" fall through to parsing the wrapped construct, with
// the export keywords themselves discarded.
func (p *Parser) parseExportStatement() *syntax.Node {
	start := p.next() // "export"

	if p.checkPunct("*") || p.checkPunct("{") {
		for p.peek().kind != tokEOF && !p.checkIdent("from") && !p.checkPunct(";") {
			p.next()
		}
		if p.checkIdent("from") {
			specifier, end := p.consumeFromClause()
			return &syntax.Node{Kind: syntax.KindImportDeclaration, Value: specifier, Span: syntax.Span{Start: start.start, End: end}}
		}
		// "export { a, b };" with no "from": a local re-export, not a new module edge.
		p.consumeSemicolon()
		return &syntax.Node{Kind: syntax.KindEmptyStatement, Span: syntax.Span{Start: start.start, End: p.peek().end}}
	}

	if p.checkIdent("default") {
		p.next()
	}
	return p.parseStatement()
}

func (p *Parser) parseTryStatement() *syntax.Node {
	start := p.next() // "try"
	node := &syntax.Node{Kind: syntax.KindTryStatement, Span: syntax.Span{Start: start.start}}
	node.Body = p.parseBlockStatement()
	end := node.Body.Span.End

	if p.checkIdent("catch") {
		catchStart := p.next()
		catch := &syntax.Node{Kind: syntax.KindCatchClause, Span: syntax.Span{Start: catchStart.start}}
		if p.checkPunct("(") {
			closeIdx := p.matchingBracket(p.pos)
			if closeIdx >= 0 {
				p.pos = closeIdx + 1
			} else {
				p.next()
			}
		}
		catch.Body = p.parseBlockStatement()
		catch.Span.End = catch.Body.Span.End
		node.Handler = catch
		end = catch.Span.End
	}

	if p.checkIdent("finally") {
		p.next()
		node.Finalizer = p.parseBlockStatement()
		end = node.Finalizer.Span.End
	}

	node.Span.End = end
	return node
}

// parseForStatement disambiguates the three for-loop shapes by scanning the header: a bare
// "in"/"of" token inside the parens (outside any nested brackets) at the top level means
// ForIn/ForOf; otherwise it's the classic three-clause form. The scan works directly off
// matchingBracket's close index so it never misparses a nested arrow param list's own "in".
func (p *Parser) parseForStatement() *syntax.Node {
	start := p.next() // "for"
	if p.checkIdent("await") {
		p.next()
	}
	openIdx := p.pos
	closeIdx := p.matchingBracket(openIdx)
	kind := p.classifyForHeader(openIdx, closeIdx)

	p.next() // "("

	switch kind {
	case syntax.KindForInStatement, syntax.KindForOfStatement:
		left := p.parseForBinding()
		p.next() // "in" / "of"
		right := p.parseExpression(false)
		if closeIdx >= 0 {
			p.pos = closeIdx
		}
		p.expectPunct(")")
		body := p.parseStatement()
		node := &syntax.Node{Kind: kind, Left: left, Right: right, Body: body, Span: syntax.Span{Start: start.start, End: body.Span.End}}
		return node
	default:
		var init, test, update *syntax.Node
		if !p.checkPunct(";") {
			init = p.parseForBinding()
		}
		p.expectPunct(";")
		if !p.checkPunct(";") {
			test = p.parseExpression(false)
		}
		p.expectPunct(";")
		if !p.checkPunct(")") {
			update = p.parseExpression(false)
		}
		if closeIdx >= 0 {
			p.pos = closeIdx
		}
		p.expectPunct(")")
		body := p.parseStatement()
		return &syntax.Node{Kind: syntax.KindForStatement, Init: init, Test: test, Update: update, Body: body, Span: syntax.Span{Start: start.start, End: body.Span.End}}
	}
}

// classifyForHeader inspects the tokens between the header's parens (not descending into any
// nested bracket pair) for a top-level "in" or "of" keyword.
func (p *Parser) classifyForHeader(openIdx, closeIdx int) syntax.Kind {
	if closeIdx < 0 {
		return syntax.KindForStatement
	}
	depth := 0
	for i := openIdx + 1; i < closeIdx; i++ {
		t := p.tokens[i]
		if t.kind == tokPunct {
			switch t.raw {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ";":
				if depth == 0 {
					return syntax.KindForStatement
				}
			}
		}
		if depth == 0 && t.kind == tokIdent {
			if t.raw == "in" {
				return syntax.KindForInStatement
			}
			if t.raw == "of" {
				return syntax.KindForOfStatement
			}
		}
	}
	return syntax.KindForStatement
}

// parseForBinding parses a for-header initialiser clause: a declaration ("let x", "const {a}")
// or a bare expression target, as a plain expression node — the binding's identifier shape is
// never inspected by any rule, only its presence as Init/Left.
func (p *Parser) parseForBinding() *syntax.Node {
	if p.checkIdent("var") || p.checkIdent("let") || p.checkIdent("const") {
		p.next()
	}
	return p.parseExpression(true)
}

func (p *Parser) parseWhileStatement() *syntax.Node {
	start := p.next() // "while"
	p.expectPunct("(")
	test := p.parseExpression(false)
	p.expectPunct(")")
	body := p.parseStatement()
	return &syntax.Node{Kind: syntax.KindWhileStatement, Test: test, Body: body, Span: syntax.Span{Start: start.start, End: body.Span.End}}
}

func (p *Parser) parseDoWhileStatement() *syntax.Node {
	start := p.next() // "do"
	body := p.parseStatement()
	end := body.Span.End
	if p.checkIdent("while") {
		p.next()
		p.expectPunct("(")
		test := p.parseExpression(false)
		end = p.peek().end
		p.expectPunct(")")
		p.consumeSemicolon()
		return &syntax.Node{Kind: syntax.KindDoWhileStatement, Test: test, Body: body, Span: syntax.Span{Start: start.start, End: end}}
	}
	return &syntax.Node{Kind: syntax.KindDoWhileStatement, Body: body, Span: syntax.Span{Start: start.start, End: end}}
}

func (p *Parser) parseIfStatement() *syntax.Node {
	start := p.next() // "if"
	p.expectPunct("(")
	test := p.parseExpression(false)
	p.expectPunct(")")
	cons := p.parseStatement()
	node := &syntax.Node{Kind: syntax.KindOther, Test: test, Body: cons, Span: syntax.Span{Start: start.start, End: cons.Span.End}}
	node.Children = []*syntax.Node{test, cons}
	if p.checkIdent("else") {
		p.next()
		alt := p.parseStatement()
		node.Children = append(node.Children, alt)
		node.Span.End = alt.Span.End
	}
	return node
}

func (p *Parser) parseReturnOrThrow() *syntax.Node {
	start := p.next() // "return" / "throw"
	node := &syntax.Node{Kind: syntax.KindOther, Span: syntax.Span{Start: start.start, End: start.end}}
	if !p.checkPunct(";") && !p.checkPunct("}") && p.peek().kind != tokEOF && !p.peek().newlineBefore {
		expr := p.parseExpression(false)
		node.Children = []*syntax.Node{expr}
		node.Span.End = expr.Span.End
	}
	p.consumeSemicolon()
	return node
}

func (p *Parser) parseBreakContinue() *syntax.Node {
	start := p.next()
	if p.peek().kind == tokIdent && !p.peek().newlineBefore && !isStatementKeyword(p.peek().raw) {
		p.next() // label
	}
	p.consumeSemicolon()
	return &syntax.Node{Kind: syntax.KindOther, Span: syntax.Span{Start: start.start, End: start.end}}
}

var statementKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "do": true, "switch": true, "try": true,
	"return": true, "break": true, "continue": true, "function": true, "class": true,
	"var": true, "let": true, "const": true, "import": true, "export": true, "throw": true,
}

func isStatementKeyword(s string) bool { return statementKeywords[s] }

func (p *Parser) parseSwitchStatement() *syntax.Node {
	start := p.next() // "switch"
	p.expectPunct("(")
	disc := p.parseExpression(false)
	p.expectPunct(")")
	node := &syntax.Node{Kind: syntax.KindOther, Span: syntax.Span{Start: start.start}, Children: []*syntax.Node{disc}}
	p.expectPunct("{")
	for !p.checkPunct("}") && p.peek().kind != tokEOF {
		if p.checkIdent("case") {
			p.next()
			test := p.parseExpression(false)
			node.Children = append(node.Children, test)
			p.expectPunct(":")
		} else if p.checkIdent("default") {
			p.next()
			p.expectPunct(":")
		} else {
			stmt := p.parseStatement()
			if stmt != nil {
				node.Children = append(node.Children, stmt)
			}
		}
	}
	end := p.peek().end
	if p.checkPunct("}") {
		end = p.next().end
	}
	node.Span.End = end
	return node
}

func (p *Parser) parseVarStatement(noIn bool) *syntax.Node {
	start := p.next() // var/let/const
	node := &syntax.Node{Kind: syntax.KindOther, Span: syntax.Span{Start: start.start}}
	for {
		p.skipBindingTarget()
		if p.checkPunct("=") {
			p.next()
			init := p.parseAssignment(noIn)
			node.Children = append(node.Children, init)
			node.Span.End = init.Span.End
		}
		if p.checkPunct(",") {
			p.next()
			continue
		}
		break
	}
	if node.Span.End == 0 {
		node.Span.End = p.peek().end
	}
	p.consumeSemicolon()
	return node
}

// skipBindingTarget consumes a binding target (identifier, array pattern, or object pattern),
// including any TypeScript type annotation, without recording it: no rule inspects declared names.
func (p *Parser) skipBindingTarget() {
	switch {
	case p.checkPunct("["):
		closeIdx := p.matchingBracket(p.pos)
		if closeIdx >= 0 {
			p.pos = closeIdx + 1
		} else {
			p.next()
		}
	case p.checkPunct("{"):
		closeIdx := p.matchingBracket(p.pos)
		if closeIdx >= 0 {
			p.pos = closeIdx + 1
		} else {
			p.next()
		}
	default:
		if p.peek().kind == tokIdent {
			p.next()
		}
	}
	if p.checkPunct(":") {
		p.skipTypeAnnotation()
	}
}

// skipTypeAnnotation consumes a TypeScript ": Type" annotation starting at the colon, stopping at
// the first "=" ","  ";" ")" or newline-free end of the enclosing construct, tracking bracket
// depth so a generic or object-type literal inside the annotation doesn't confuse the boundary.
func (p *Parser) skipTypeAnnotation() {
	p.next() // ":"
	depth := 0
	for p.peek().kind != tokEOF {
		t := p.peek()
		if depth == 0 && t.kind == tokPunct && (t.raw == "=" || t.raw == "," || t.raw == ";" || t.raw == ")") {
			return
		}
		if t.kind == tokPunct {
			switch t.raw {
			case "(", "[", "{", "<":
				depth++
			case ")", "]", "}", ">":
				if depth == 0 {
					return
				}
				depth--
			}
		}
		p.next()
	}
}

func (p *Parser) parseExpressionStatement() *syntax.Node {
	expr := p.parseExpression(false)
	p.consumeSemicolon()
	return expr
}

// parseFunction parses a function declaration or expression. declaration=true is passed from
// statement context and yields a FunctionDeclaration node; the name is optional either way, so a
// declaration with no identifier after "function" (e.g. `export default function() {}`) gets an
// empty Name.
func (p *Parser) parseFunction(declaration bool) *syntax.Node {
	p.next() // "function"
	return p.parseFunctionTail(declaration, "")
}

// parseFunctionTail parses the part of a function shared between a `function` keyword form and an
// object-literal method shorthand (presetName, already consumed by the caller).
func (p *Parser) parseFunctionTail(declaration bool, presetName string) *syntax.Node {
	if p.checkPunct("*") {
		p.next() // generator
	}
	name := presetName
	if name == "" && p.peek().kind == tokIdent && !p.checkPunct("(") {
		name = p.next().raw
	}
	if p.checkPunct("<") {
		p.skipTypeParams()
	}
	kind := syntax.KindFunctionExpression
	if declaration {
		kind = syntax.KindFunctionDeclaration
	}
	node := &syntax.Node{Kind: kind, Name: name}
	node.Params = p.parseParamList()
	if p.checkPunct(":") {
		p.skipTypeAnnotation()
	}
	node.Body = p.parseBlockStatement()
	node.Span = node.Body.Span
	return node
}

// skipTypeParams consumes a TypeScript "<T, U extends V>" generic parameter list, using the same
// bracket-depth walk as skipTypeAnnotation.
func (p *Parser) skipTypeParams() {
	depth := 0
	for p.peek().kind != tokEOF {
		t := p.next()
		if t.kind == tokPunct {
			switch t.raw {
			case "<":
				depth++
			case ">":
				depth--
				if depth == 0 {
					return
				}
			}
		}
	}
}

func (p *Parser) parseParamList() []*syntax.Node {
	p.expectPunct("(")
	var params []*syntax.Node
	for !p.checkPunct(")") && p.peek().kind != tokEOF {
		if p.checkPunct("...") {
			p.next()
		}
		start := p.peek()
		p.skipBindingTarget()
		param := &syntax.Node{Kind: syntax.KindIdentifier, Span: syntax.Span{Start: start.start, End: p.peek().start}}
		if p.checkPunct("=") {
			p.next()
			def := p.parseAssignment(false)
			param.Children = []*syntax.Node{def}
		}
		params = append(params, param)
		if p.checkPunct(",") {
			p.next()
			continue
		}
		break
	}
	p.expectPunct(")")
	return params
}

// parseClass parses a class declaration/expression body only deeply enough to find the method
// bodies inside it: heritage clauses, decorators, and field type annotations are skipped, and each
// method becomes a FunctionExpression child so analysis still sees calls/loops/imports made
// inside class methods.
func (p *Parser) parseClass(declaration bool) *syntax.Node {
	start := p.next() // "class"
	name := ""
	if p.peek().kind == tokIdent && !p.checkPunct("{") && !p.checkIdent("extends") {
		name = p.next().raw
	}
	if p.checkPunct("<") {
		p.skipTypeParams()
	}
	if p.checkIdent("extends") {
		p.next()
		p.parseCallOrMember(false)
	}
	if p.checkIdent("implements") {
		p.next()
		for p.peek().kind != tokEOF && !p.checkPunct("{") {
			p.next()
		}
	}
	node := &syntax.Node{Kind: syntax.KindOther, Name: name, Span: syntax.Span{Start: start.start}}
	p.expectPunct("{")
	for !p.checkPunct("}") && p.peek().kind != tokEOF {
		if p.checkPunct(";") {
			p.next()
			continue
		}
		if member := p.parseClassMember(); member != nil {
			node.Children = append(node.Children, member)
		}
	}
	end := p.peek().end
	if p.checkPunct("}") {
		end = p.next().end
	}
	node.Span.End = end
	return node
}

var classModifiers = map[string]bool{
	"static": true, "public": true, "private": true, "protected": true,
	"readonly": true, "abstract": true, "override": true, "async": true,
}

func (p *Parser) parseClassMember() *syntax.Node {
	for classModifiers[p.peek().raw] && p.peek().kind == tokIdent && !p.peekAhead(1).isPunct("(") && !p.peekAhead(1).isPunct("=") {
		p.next()
	}
	if p.checkPunct("*") {
		p.next()
	}
	if (p.checkIdent("get") || p.checkIdent("set")) && !p.peekAhead(1).isPunct("(") {
		p.next()
	}
	if p.checkPunct("[") {
		// Computed member name: skip it, then fall through to treat whatever follows uniformly.
		closeIdx := p.matchingBracket(p.pos)
		if closeIdx >= 0 {
			p.pos = closeIdx + 1
		} else {
			p.next()
		}
	} else if p.peek().kind == tokIdent || p.peek().kind == tokString || p.peek().kind == tokNumber {
		nameTok := p.next()
		if p.checkPunct("(") {
			return p.parseFunctionTail(false, nameTok.raw)
		}
		if p.checkPunct("?") {
			p.next()
		}
		if p.checkPunct(":") {
			p.skipTypeAnnotation()
		}
		if p.checkPunct("=") {
			p.next()
			init := p.parseAssignment(false)
			p.consumeSemicolon()
			return init
		}
		p.consumeSemicolon()
		return nil
	}
	// Unrecognised member shape: advance at least one token so the loop always makes progress.
	if !p.checkPunct("}") {
		p.next()
	}
	return nil
}
