package config

import (
	"fmt"
	"strings"

	"buildprobe/internal/target"
)

// ProgramType names the kind of tool a program declaration refers to.
type ProgramType string

const (
	ProgramRustc   ProgramType = "rustc"
	ProgramCargo   ProgramType = "cargo"
	ProgramCC      ProgramType = "cc"
	ProgramCXX     ProgramType = "cxx"
	ProgramAs      ProgramType = "as"
	ProgramAr      ProgramType = "ar"
	ProgramLd      ProgramType = "ld"
	ProgramObjdump ProgramType = "objdump"
	ProgramObjcopy ProgramType = "objcopy"
	ProgramStrip   ProgramType = "strip"
	ProgramLn      ProgramType = "ln"
	ProgramLnS     ProgramType = "ln-s"
	ProgramInstall ProgramType = "install"
	ProgramYacc    ProgramType = "yacc"
	ProgramLex     ProgramType = "lex"
)

var knownProgramTypes = map[ProgramType]bool{
	ProgramRustc: true, ProgramCargo: true, ProgramCC: true, ProgramCXX: true,
	ProgramAs: true, ProgramAr: true, ProgramLd: true, ProgramObjdump: true,
	ProgramObjcopy: true, ProgramStrip: true, ProgramLn: true, ProgramLnS: true,
	ProgramInstall: true, ProgramYacc: true, ProgramLex: true,
}

// Known reports whether t is one of the recognised program kinds.
func (t ProgramType) Known() bool {
	return knownProgramTypes[t]
}

// IsCompiler reports whether programs of this kind produce code for a target.
func (t ProgramType) IsCompiler() bool {
	switch t {
	case ProgramRustc, ProgramCC, ProgramCXX:
		return true
	}
	return false
}

// BuildTarget selects which triple a compiler program is probed for: one of
// the $build, $host, $target placeholders or a literal triple.
type BuildTarget string

const (
	TargetOfBuild  BuildTarget = "$build"
	TargetOfHost   BuildTarget = "$host"
	TargetOfTarget BuildTarget = "$target"
)

// Resolve maps b onto tr. An empty selector means $host.
func (b BuildTarget) Resolve(tr Triples) (target.Target, error) {
	switch BuildTarget(strings.TrimSpace(string(b))) {
	case TargetOfBuild:
		return tr.Build, nil
	case TargetOfHost, "":
		return tr.Host, nil
	case TargetOfTarget:
		return tr.Target, nil
	}
	if strings.HasPrefix(string(b), "$") {
		return target.Target{}, fmt.Errorf("unknown target placeholder %q", string(b))
	}
	return target.Parse(string(b))
}

// Program declares an external tool the build needs.
type Program struct {
	Type           ProgramType       `yaml:"type"`
	Names          []string          `yaml:"names,omitempty"`
	CompilerTarget BuildTarget       `yaml:"compiler-target,omitempty"`
	Extra          map[string]string `yaml:",inline"`
}

// NamesOr returns the declared names, or defaults when none are declared.
func (p Program) NamesOr(defaults []string) []string {
	if len(p.Names) == 0 {
		return defaults
	}
	return append([]string(nil), p.Names...)
}
