// Package messages defines the narrow message-provider contract the core consumes for
// human-readable rendering and a handful of rule-runtime diagnostics. Locale data itself lives
// outside the core; see internal/messages for the concrete zh/en tables.
package messages

// Provider supplies the localized strings the text reporter and rule runtime need. The core never
// hardcodes a language; every user-facing string that isn't a rule-authored message or specifier
// comes from here.
type Provider interface {
	// TagLabel returns the display label for a rule tag, e.g. "base" or "performance".
	TagLabel(tag string) string
	// SeverityIcon returns a short glyph for a severity, used in the text report header.
	SeverityIcon(severity string) string
	// SuggestionLabel returns the header word for a violation's suggestion line, e.g. "Suggestion".
	SuggestionLabel() string
	// SuggestionSeparator joins multiple suggestion texts on a single line.
	SuggestionSeparator() string
	// RuleExecutionFailed renders the notification emitted when a rule panics.
	RuleExecutionFailed(ruleName, filePath string) string
}
