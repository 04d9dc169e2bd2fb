package messages

import (
	"testing"

	"autocr/pkg/messages"
)

func TestDefaultImplementsProvider(t *testing.T) {
	var _ messages.Provider = New("en")
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	d := New("fr")
	if d.TagLabel("base") != "base" {
		t.Errorf("TagLabel(base) = %q, want English fallback", d.TagLabel("base"))
	}
}

func TestZHTagLabelsAreLocalized(t *testing.T) {
	d := New("zh")
	if d.TagLabel("performance") != "性能" {
		t.Errorf("TagLabel(performance) = %q", d.TagLabel("performance"))
	}
	if d.TagLabel("nonexistent-tag") != d.TagLabel("untagged") {
		t.Errorf("unrecognized tag should fall back to the untagged label")
	}
}

func TestSeverityIconCoversAllThreeSeverities(t *testing.T) {
	d := New("en")
	for _, sev := range []string{"error", "warning", "optimizing"} {
		if d.SeverityIcon(sev) == "?" {
			t.Errorf("SeverityIcon(%q) unexpectedly unresolved", sev)
		}
	}
	if d.SeverityIcon("bogus") != "?" {
		t.Errorf("unrecognized severity should resolve to the placeholder icon")
	}
}

func TestRuleExecutionFailedInterpolatesRuleAndFile(t *testing.T) {
	d := New("en")
	got := d.RuleExecutionFailed("no-catastrophic-regex", "src/app.ts")
	if got != `rule "no-catastrophic-regex" failed on file "src/app.ts"` {
		t.Errorf("RuleExecutionFailed = %q", got)
	}
}
