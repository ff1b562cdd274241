package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"buildprobe/internal/target"
)

// Config captures how toolchains are located and probed for a build.
type Config struct {
	Version      int                `yaml:"version"`
	Probe        ProbeConfig        `yaml:"probe"`
	Targets      TargetsConfig      `yaml:"targets"`
	ProgramFiles []string           `yaml:"program-files,omitempty"`
	Programs     map[string]Program `yaml:"programs,omitempty"`
}

// ProbeConfig controls the compiler probe.
type ProbeConfig struct {
	CompilerEnv    string        `yaml:"compiler-env"`
	FlagsEnv       string        `yaml:"flags-env"`
	DefaultFlags   string        `yaml:"default-flags"`
	MinimumVersion string        `yaml:"minimum-version,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
}

// TargetsConfig names the build, host and target triples. Empty entries fall
// back along build -> host -> target, with the running machine as the root.
type TargetsConfig struct {
	Build  string `yaml:"build,omitempty"`
	Host   string `yaml:"host,omitempty"`
	Target string `yaml:"target,omitempty"`
}

// Triples is the resolved form of TargetsConfig.
type Triples struct {
	Build  target.Target
	Host   target.Target
	Target target.Target
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Probe: ProbeConfig{
			CompilerEnv:  "RUSTC",
			FlagsEnv:     "RUSTFLAGS",
			DefaultFlags: "-O -g",
		},
		Programs: map[string]Program{
			"rustc": {Type: ProgramRustc, CompilerTarget: TargetOfTarget},
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration. Program files are resolved relative to the
// configuration file.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	cfg.Programs = nil
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.loadProgramFiles(filepath.Dir(path)); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures fields fall back to sensible defaults when the YAML
// omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Probe.CompilerEnv == "" {
		c.Probe.CompilerEnv = defaults.Probe.CompilerEnv
	}
	if c.Probe.FlagsEnv == "" {
		c.Probe.FlagsEnv = defaults.Probe.FlagsEnv
	}
	if c.Probe.DefaultFlags == "" {
		c.Probe.DefaultFlags = defaults.Probe.DefaultFlags
	}
	if len(c.Programs) == 0 {
		c.Programs = defaults.Programs
	}
	for name, p := range c.Programs {
		if p.Type == "" {
			p.Type = ProgramType(name)
		}
		if p.CompilerTarget == "" && p.Type.IsCompiler() {
			p.CompilerTarget = TargetOfHost
		}
		c.Programs[name] = p
	}
}

// Triples resolves the configured triples.
func (c Config) Triples() (Triples, error) {
	var tr Triples
	var err error

	if tr.Build, err = parseOr(c.Targets.Build, target.Host()); err != nil {
		return Triples{}, fmt.Errorf("targets.build: %w", err)
	}
	if tr.Host, err = parseOr(c.Targets.Host, tr.Build); err != nil {
		return Triples{}, fmt.Errorf("targets.host: %w", err)
	}
	if tr.Target, err = parseOr(c.Targets.Target, tr.Host); err != nil {
		return Triples{}, fmt.Errorf("targets.target: %w", err)
	}
	return tr, nil
}

func parseOr(value string, fallback target.Target) (target.Target, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return target.Parse(value)
}

// ProgramNames returns the configured program names in sorted order.
func (c Config) ProgramNames() []string {
	names := make([]string, 0, len(c.Programs))
	for name := range c.Programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FirstProgram returns the first program of the given type in name order.
func (c Config) FirstProgram(ty ProgramType) (string, Program, bool) {
	for _, name := range c.ProgramNames() {
		if p := c.Programs[name]; p.Type == ty {
			return name, p, true
		}
	}
	return "", Program{}, false
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
