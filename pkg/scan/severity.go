package scan

import (
	"fmt"

	"autocr/pkg/model"
	"autocr/pkg/rule"
)

// ApplyRuleSettings merges severity overrides into ruleSet (phase 5). A setting of "off", false,
// or 0 drops the rule entirely. A setting of true, the zero value (missing from the map), or 1
// keeps the rule's default severity. "warn"/"warning", "error", "optimizing", and 2 (the ESLint
// convention this enum borrows from) force the matching severity. Any other value is invalid: the
// rule keeps its default severity and a warn notification is returned.
func ApplyRuleSettings(ruleSet []rule.Rule, settings map[string]any) ([]rule.Rule, []model.Notification) {
	if len(settings) == 0 {
		return ruleSet, nil
	}

	var notifications []model.Notification
	effective := make([]rule.Rule, 0, len(ruleSet))
	for _, r := range ruleSet {
		raw, ok := settings[r.Name]
		if !ok {
			effective = append(effective, r)
			continue
		}

		severity, off, valid := resolveSeveritySetting(raw)
		if !valid {
			notifications = append(notifications, model.Notification{
				Level:   model.LevelWarn,
				Message: fmt.Sprintf("invalid severity setting for rule %q, keeping default", r.Name),
				Detail:  fmt.Sprint(raw),
			})
			effective = append(effective, r)
			continue
		}
		if off {
			continue
		}
		if severity != "" {
			r.Severity = severity
		}
		effective = append(effective, r)
	}
	return effective, notifications
}

// resolveSeveritySetting decodes a single raw setting value. severity is empty when the setting
// means "keep the default".
func resolveSeveritySetting(raw any) (severity model.Severity, off bool, valid bool) {
	switch v := raw.(type) {
	case bool:
		if v {
			return "", false, true
		}
		return "", true, true
	case int:
		switch v {
		case 0:
			return "", true, true
		case 1:
			return "", false, true
		case 2:
			return model.SeverityError, false, true
		}
	case float64: // JSON/YAML numeric decode commonly lands here
		return resolveSeveritySetting(int(v))
	case string:
		switch v {
		case "off":
			return "", true, true
		case "warn", "warning":
			return model.SeverityWarning, false, true
		case "error":
			return model.SeverityError, false, true
		case "optimizing":
			return model.SeverityOptimizing, false, true
		}
	}
	return "", false, false
}
