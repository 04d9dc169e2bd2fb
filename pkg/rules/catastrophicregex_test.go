package rules

import "testing"

func TestNoCatastrophicRegexFlagsHotPathLiteral(t *testing.T) {
	source := "for (const s of xs) { /(a+)+$/.test(s) }\n"
	root := forLoop(block(call(member(regex(`(a+)+$`), "test"), ident("s"))))

	violations, _ := runRuleFull(NoCatastrophicRegex, root, source)
	if len(violations) != 1 {
		t.Fatalf("len(violations) = %d, want 1", len(violations))
	}
	if violations[0].Code != `(a+)+$` {
		t.Errorf("Code = %q, want %q", violations[0].Code, `(a+)+$`)
	}
}

func TestNoCatastrophicRegexIgnoresLiteralOutsideHotPath(t *testing.T) {
	root := block(call(member(regex(`(a+)+$`), "test"), ident("s")))

	violations, _ := runRuleFull(NoCatastrophicRegex, root, "")
	if len(violations) != 0 {
		t.Errorf("violations = %v, want none (not in a hot path)", violations)
	}
}

func TestNoCatastrophicRegexFlagsConstructorCall(t *testing.T) {
	root := forLoop(block(call(ident("RegExp"), str(`(.*)+`))))

	violations, _ := runRuleFull(NoCatastrophicRegex, root, "")
	if len(violations) != 1 || violations[0].Code != `(.*)+` {
		t.Fatalf("violations = %v, want one flagging (.*)+", violations)
	}
}

func TestNoCatastrophicRegexIgnoresSafePattern(t *testing.T) {
	root := forLoop(block(call(member(regex(`^[a-z]+$`), "test"), ident("s"))))

	violations, _ := runRuleFull(NoCatastrophicRegex, root, "")
	if len(violations) != 0 {
		t.Errorf("violations = %v, want none (no nested unbounded quantifier)", violations)
	}
}
