package config

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"buildprobe/internal/runner"
	"buildprobe/internal/target"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// ValidateStrict runs all strict validations against the config and returns
// structured results.
func (c Config) ValidateStrict() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateVersion()...)
	results = append(results, c.validateProbe()...)
	results = append(results, c.validateTargets()...)
	results = append(results, c.validatePrograms()...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateVersion() []ValidationResult {
	if c.Version == 1 {
		return nil
	}
	return []ValidationResult{{
		Level:   "warning",
		Message: fmt.Sprintf("config version %d is not recognised; reading as version 1", c.Version),
	}}
}

func (c Config) validateProbe() []ValidationResult {
	var results []ValidationResult
	if minimum := strings.TrimSpace(c.Probe.MinimumVersion); minimum != "" {
		if _, err := goversion.NewVersion(minimum); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("probe.minimum-version %q is not a version: %v", minimum, err),
			})
		}
	}
	if c.Probe.Timeout < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("probe.timeout must be >= 0, got %s", c.Probe.Timeout),
		})
	}
	if _, err := runner.SplitFlags(c.Probe.DefaultFlags); err != nil {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("probe.default-flags: %v", err),
		})
	}
	if strings.ContainsAny(c.Probe.CompilerEnv, "= ") || strings.ContainsAny(c.Probe.FlagsEnv, "= ") {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: "probe environment variable names must not contain '=' or spaces",
		})
	}
	return results
}

func (c Config) validateTargets() []ValidationResult {
	var results []ValidationResult
	fields := []struct {
		key   string
		value string
	}{
		{"build", c.Targets.Build},
		{"host", c.Targets.Host},
		{"target", c.Targets.Target},
	}
	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if value == "" {
			continue
		}
		if _, err := target.Parse(value); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("targets.%s: %v", f.key, err),
			})
		}
	}
	return results
}

func (c Config) validatePrograms() []ValidationResult {
	var results []ValidationResult
	for _, name := range c.ProgramNames() {
		p := c.Programs[name]
		if !p.Type.Known() {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("program %q has unrecognised type %q", name, p.Type),
			})
		}
		for i, n := range p.Names {
			if strings.TrimSpace(n) == "" {
				results = append(results, ValidationResult{
					Level:   "error",
					Message: fmt.Sprintf("program %q: names[%d] is empty", name, i),
				})
			}
		}
		if p.CompilerTarget == "" {
			continue
		}
		if !p.Type.IsCompiler() {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("program %q: compiler-target is ignored for type %q", name, p.Type),
			})
			continue
		}
		if _, err := p.CompilerTarget.Resolve(Triples{}); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("program %q: compiler-target: %v", name, err),
			})
		}
	}
	return results
}
