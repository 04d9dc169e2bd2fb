// Package messages supplies the default zh/en implementations of pkg/messages.Provider: the
// small set of localized chrome strings the text reporter and scan orchestrator need (tag labels,
// severity icons, suggestion formatting, and the rule-execution-failed notification). Locale data
// lives here, outside the core, exactly as spec.md §1 scopes i18n out as an external collaborator.
package messages

import "fmt"

// Language identifies one of the two supported locales. Any other value falls back to English.
type Language string

const (
	LangZH Language = "zh"
	LangEN Language = "en"
)

type table struct {
	tagLabels           map[string]string
	severityIcons       map[string]string
	suggestionLabel     string
	suggestionSeparator string
	ruleExecutionFailed string
}

var tables = map[Language]table{
	LangZH: {
		tagLabels: map[string]string{
			"base":        "基础",
			"performance": "性能",
			"untagged":    "其他",
		},
		severityIcons: map[string]string{
			"error":      "✗",
			"warning":    "⚠",
			"optimizing": "⚡",
		},
		suggestionLabel:     "建议",
		suggestionSeparator: "；",
		ruleExecutionFailed: "规则 %q 在文件 %q 上执行失败",
	},
	LangEN: {
		tagLabels: map[string]string{
			"base":        "base",
			"performance": "performance",
			"untagged":    "other",
		},
		severityIcons: map[string]string{
			"error":      "x",
			"warning":    "!",
			"optimizing": "*",
		},
		suggestionLabel:     "Suggestion",
		suggestionSeparator: "; ",
		ruleExecutionFailed: "rule %q failed on file %q",
	},
}

// Default implements pkg/messages.Provider for a single fixed language, resolved once at scan
// setup (the worker init message in spec.md §4.8 carries language, not a per-call parameter).
type Default struct {
	lang Language
	t    table
}

// New returns the Provider for lang, falling back to English for anything other than "zh"/"en".
func New(lang string) Default {
	l := Language(lang)
	t, ok := tables[l]
	if !ok {
		l, t = LangEN, tables[LangEN]
	}
	return Default{lang: l, t: t}
}

func (d Default) TagLabel(tag string) string {
	if label, ok := d.t.tagLabels[tag]; ok {
		return label
	}
	return d.t.tagLabels["untagged"]
}

func (d Default) SeverityIcon(severity string) string {
	if icon, ok := d.t.severityIcons[severity]; ok {
		return icon
	}
	return "?"
}

func (d Default) SuggestionLabel() string {
	return d.t.suggestionLabel
}

func (d Default) SuggestionSeparator() string {
	return d.t.suggestionSeparator
}

func (d Default) RuleExecutionFailed(ruleName, filePath string) string {
	return fmt.Sprintf(d.t.ruleExecutionFailed, ruleName, filePath)
}
