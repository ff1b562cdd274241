package rustc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"buildprobe/internal/runner"
	"buildprobe/internal/target"
	"buildprobe/internal/which"
)

const (
	DefaultCompilerEnv  = "RUSTC"
	DefaultFlagsEnv     = "RUSTFLAGS"
	DefaultFlags        = "-O -g"
	sourceFileName      = probeStem + ".rs"
	alternativeCompiler = "lcrustc"
	gccFrontEnd         = "gccrs"
)

// Toolchain is a fully probed and validated compiler for one target.
type Toolchain struct {
	Path    string   `json:"path"`
	Flags   []string `json:"flags"`
	NoStd   bool     `json:"no_std"`
	Version Version  `json:"version"`
	Naming  Naming   `json:"naming"`
}

// Options configures a probe session.
type Options struct {
	// Target is the triple to compile for.
	Target target.Target
	// CrossCompiling suppresses execution of produced binaries.
	CrossCompiling bool
	// ScratchDir must be owned exclusively by this session.
	ScratchDir string

	// Compiler, when set, is used instead of the environment and PATH.
	Compiler    string
	CompilerEnv string
	FlagsEnv    string
	// DefaultFlags applies when FlagsEnv is unset.
	DefaultFlags string
	// Candidates are the program names searched for on PATH.
	Candidates []string

	LookupEnv func(string) (string, bool)
	Locate    func(names ...string) (string, error)
	Runner    runner.Runner
	Logger    *log.Logger
	Reporter  Reporter
}

// DefaultCandidates returns the compiler names searched for t, in order.
func DefaultCandidates(t target.Target) []string {
	return []string{baselineProgram, alternativeCompiler, t.Name() + "-" + gccFrontEnd, gccFrontEnd}
}

func (o *Options) applyDefaults() {
	if o.CompilerEnv == "" {
		o.CompilerEnv = DefaultCompilerEnv
	}
	if o.FlagsEnv == "" {
		o.FlagsEnv = DefaultFlagsEnv
	}
	if o.DefaultFlags == "" {
		o.DefaultFlags = DefaultFlags
	}
	if len(o.Candidates) == 0 {
		o.Candidates = DefaultCandidates(o.Target)
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	if o.Locate == nil {
		o.Locate = which.FindAnyInEnv
	}
	if o.Runner == nil {
		o.Runner = runner.CmdRunner{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	if o.Reporter == nil {
		o.Reporter = nopReporter{}
	}
}

// session holds the mutable state of one probe. It is never shared.
type session struct {
	compiler string
	flags    []string
	target   target.Target
	cross    bool
	scratch  string
	source   string
	runner   runner.Runner
	logger   *log.Logger
}

// Probe locates the compiler for opts.Target, works out how to invoke it,
// reads its version, and validates that it produces working output. Every
// compiler invocation blocks until the child exits.
func Probe(ctx context.Context, opts Options) (Toolchain, error) {
	if opts.Target.IsZero() {
		return Toolchain{}, errors.New("probe: no target given")
	}
	if opts.ScratchDir == "" {
		return Toolchain{}, errors.New("probe: no scratch directory given")
	}
	// The produced binary is executed by path, so it must never be bare.
	scratch, err := filepath.Abs(opts.ScratchDir)
	if err != nil {
		return Toolchain{}, fmt.Errorf("probe: scratch directory: %w", err)
	}
	opts.applyDefaults()
	rep := opts.Reporter

	s := &session{
		target:  opts.Target,
		cross:   opts.CrossCompiling,
		scratch: scratch,
		source:  filepath.Join(scratch, sourceFileName),
		runner:  opts.Runner,
		logger:  opts.Logger,
	}

	rep.PhaseStarted(PhaseLocate)
	flags, err := initialFlags(opts)
	if err == nil {
		s.flags = flags
		s.compiler, err = locateCompiler(opts)
	}
	rep.PhaseFinished(PhaseLocate, s.compiler, err)
	if err != nil {
		return Toolchain{}, err
	}
	s.logger.Printf("probe %s: compiler=%s flags=%q cross=%v", s.target.Name(), s.compiler, s.flags, s.cross)

	if err := os.WriteFile(s.source, []byte(hostedSource), 0o644); err != nil {
		return Toolchain{}, fmt.Errorf("write %s: %w", s.source, err)
	}

	rep.PhaseStarted(PhaseTarget)
	naming, err := s.resolveTarget(ctx)
	rep.PhaseFinished(PhaseTarget, naming.Target, err)
	if err != nil {
		return Toolchain{}, err
	}

	rep.PhaseStarted(PhaseVersion)
	version, err := s.queryVersion(ctx)
	detail := ""
	if err == nil {
		detail = version.String()
	}
	rep.PhaseFinished(PhaseVersion, detail, err)
	if err != nil {
		return Toolchain{}, err
	}

	rep.PhaseStarted(PhaseValidate)
	noStd, err := s.validate(ctx, naming)
	detail = "std"
	if noStd {
		detail = "no_std"
	}
	if err != nil {
		detail = ""
	}
	rep.PhaseFinished(PhaseValidate, detail, err)
	if err != nil {
		return Toolchain{}, err
	}

	return Toolchain{
		Path:    s.compiler,
		Flags:   append([]string(nil), s.flags...),
		NoStd:   noStd,
		Version: version,
		Naming:  naming,
	}, nil
}

func initialFlags(opts Options) ([]string, error) {
	value, ok := opts.LookupEnv(opts.FlagsEnv)
	if !ok {
		value = opts.DefaultFlags
	}
	flags, err := runner.SplitFlags(value)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", opts.FlagsEnv, err)
	}
	return flags, nil
}

// locateCompiler resolves the compiler from an explicit path, then the
// compiler environment variable, then a PATH search over the candidates.
// A bare program name in either override is itself searched on PATH.
func locateCompiler(opts Options) (string, error) {
	explicit := strings.TrimSpace(opts.Compiler)
	if explicit == "" {
		if value, ok := opts.LookupEnv(opts.CompilerEnv); ok {
			explicit = strings.TrimSpace(value)
		}
	}
	if explicit == "" {
		return opts.Locate(opts.Candidates...)
	}
	if !strings.ContainsRune(explicit, '/') && !strings.ContainsRune(explicit, filepath.Separator) {
		return opts.Locate(explicit)
	}
	abs, err := filepath.Abs(explicit)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", explicit, err)
	}
	return abs, nil
}

func (s *session) run(ctx context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	res, err := s.runner.Run(ctx, command, args, opts)
	switch {
	case err != nil:
		s.logger.Printf("exec %s: %v", runner.CommandLine(command, args), err)
	default:
		s.logger.Printf("exec %s: exit=%d", runner.CommandLine(command, args), res.ExitCode)
	}
	return res, err
}

// queryVersion asks the compiler for its version line. Session flags are not
// passed; the query must not depend on the target.
func (s *session) queryVersion(ctx context.Context) (Version, error) {
	res, err := s.run(ctx, s.compiler, []string{"--version"}, runner.Options{})
	if err != nil {
		return Version{}, fmt.Errorf("invoke %s: %w", s.compiler, err)
	}
	line := firstLine(res.Stdout)
	if strings.TrimSpace(line) == "" {
		return Version{}, unsupported(s.compiler, "", "cannot determine the version", nil)
	}
	v, err := ParseVersion(line)
	if err != nil {
		return Version{}, unsupported(s.compiler, "", "cannot determine the version", err)
	}
	return v, nil
}

func firstLine(out []byte) string {
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSuffix(line, "\r")
}
