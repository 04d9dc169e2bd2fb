// Package config loads the CLI's on-disk YAML config file: rule severity overrides and default
// values for the flags a caller left unset. Loading a config file is explicitly outside the core
// scan pipeline (pkg/scan only ever consumes a pre-resolved pkg/scan.Options), so this package is
// the CLI-side collaborator that turns --config into values pkg/scan.Options understands.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"autocr/pkg/model"
)

// File is the on-disk shape of the --config YAML document.
type File struct {
	// RuleSettings maps a rule name to a severity override, passed straight through to
	// pkg/scan.ApplyRuleSettings without reinterpretation.
	RuleSettings map[string]any `yaml:"ruleSettings"`
	// RuleDir, IgnorePath, TsconfigPath, and Language are defaults used when the corresponding
	// CLI flag was left empty; a flag always takes precedence over the config file.
	RuleDir      string `yaml:"ruleDir"`
	IgnorePath   string `yaml:"ignorePath"`
	TsconfigPath string `yaml:"tsconfigPath"`
	Language     string `yaml:"language"`
}

// Load reads and parses path. A missing or malformed config file is never fatal: it returns the
// zero File plus a warn notification, and the caller proceeds with defaults, matching spec.md
// §7's classification of config problems as recoverable notifications rather than scan failures.
func Load(path string) (File, *model.Notification) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, &model.Notification{
			Level:   model.LevelWarn,
			Message: fmt.Sprintf("could not read config %q, using defaults", path),
			Detail:  err.Error(),
		}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, &model.Notification{
			Level:   model.LevelWarn,
			Message: fmt.Sprintf("could not parse config %q, using defaults", path),
			Detail:  err.Error(),
		}
	}
	return f, nil
}

// ApplyDefaults fills in any of the four pointed-to flag values that are still empty, using the
// config file's values. Call after flag parsing so an explicit flag always wins.
func (f File) ApplyDefaults(ruleDir, ignorePath, tsconfigPath, language *string) {
	if *ruleDir == "" {
		*ruleDir = f.RuleDir
	}
	if *ignorePath == "" {
		*ignorePath = f.IgnorePath
	}
	if *tsconfigPath == "" {
		*tsconfigPath = f.TsconfigPath
	}
	if *language == "" {
		*language = f.Language
	}
}
