package rustc

import (
	"errors"
	"strings"

	"buildprobe/internal/which"
)

var (
	// ErrNotFound reports a missing environment variable or executable.
	ErrNotFound = which.ErrNotFound
	// ErrUnsupported reports a compiler that ran but cannot be used: its output
	// was unusable, every invocation strategy failed, or its binaries would
	// not run.
	ErrUnsupported = errors.New("unsupported")
)

// ProbeError describes a failed probe with enough context to act on it.
type ProbeError struct {
	Kind     error
	Compiler string
	Target   string
	Msg      string
	Err      error
}

func (e *ProbeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.Compiler != "" {
		b.WriteString(": compiler ")
		b.WriteString(e.Compiler)
	}
	if e.Target != "" {
		b.WriteString(", target ")
		b.WriteString(e.Target)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProbeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func unsupported(compiler, target, msg string, cause error) error {
	return &ProbeError{Kind: ErrUnsupported, Compiler: compiler, Target: target, Msg: msg, Err: cause}
}
