package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"autocr/pkg/model"
	"autocr/pkg/rule"
)

// customRuleFile is the on-disk shape of a single file under --rule-dir: a declarative,
// regex-over-source custom rule, the textual equivalent of internal/lint's string-expression
// rules, reworked here against raw source text since the core has no query-pattern DSL.
type customRuleFile struct {
	Name     string `yaml:"name"`
	Tag      string `yaml:"tag"`
	Severity string `yaml:"severity"`
	Pattern  string `yaml:"pattern"`
	Message  string `yaml:"message"`
}

// LoadCustomRules reads every *.yml/*.yaml file directly under dir (non-recursive) and compiles
// each into a rule.Rule that scans a file's raw source for Pattern, reporting Message once per
// match. A file that fails to parse or compile is skipped with a warn notification rather than
// aborting the whole load, matching the severity-override malformed-entry precedent in
// pkg/scan.ApplyRuleSettings.
func LoadCustomRules(dir string) ([]rule.Rule, []model.Notification) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []model.Notification{{
			Level:   model.LevelWarn,
			Message: fmt.Sprintf("could not read rule directory %q, no custom rules loaded", dir),
			Detail:  err.Error(),
		}}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yml" || ext == ".yaml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var rules []rule.Rule
	var notifications []model.Notification
	for _, name := range names {
		path := filepath.Join(dir, name)
		r, notice := compileCustomRuleFile(path)
		if notice != nil {
			notifications = append(notifications, *notice)
			continue
		}
		rules = append(rules, r)
	}
	return rules, notifications
}

func compileCustomRuleFile(path string) (rule.Rule, *model.Notification) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rule.Rule{}, &model.Notification{
			Level: model.LevelWarn, Message: fmt.Sprintf("could not read custom rule %q, skipping", path), Detail: err.Error(),
		}
	}

	var f customRuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return rule.Rule{}, &model.Notification{
			Level: model.LevelWarn, Message: fmt.Sprintf("could not parse custom rule %q, skipping", path), Detail: err.Error(),
		}
	}
	if f.Name == "" || f.Pattern == "" {
		return rule.Rule{}, &model.Notification{
			Level: model.LevelWarn, Message: fmt.Sprintf("custom rule %q is missing name or pattern, skipping", path),
		}
	}
	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return rule.Rule{}, &model.Notification{
			Level: model.LevelWarn, Message: fmt.Sprintf("custom rule %q has an invalid pattern, skipping", path), Detail: err.Error(),
		}
	}

	severity := model.SeverityWarning
	if s := model.Severity(strings.ToLower(f.Severity)); s == model.SeverityError || s == model.SeverityOptimizing {
		severity = s
	}
	tag := f.Tag
	if tag == "" {
		tag = "untagged"
	}
	message := f.Message
	if message == "" {
		message = fmt.Sprintf("matched custom pattern %q", f.Pattern)
	}

	return rule.Rule{
		Name:     f.Name,
		Tag:      tag,
		Severity: severity,
		Run: func(ctx *rule.RuleContext) {
			for _, loc := range re.FindAllStringIndex(ctx.Source, -1) {
				line := 1 + strings.Count(ctx.Source[:loc[0]], "\n")
				ctx.Helpers.ReportViolation(rule.Message(message).WithCode(f.Pattern).WithLine(line), nil)
			}
		},
	}, nil
}
