package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

type Options struct {
	Dir    string
	Env    []string
	Stdout io.Writer
	// Stderr receives the child's standard error. When nil it is discarded.
	Stderr io.Writer
	// DiscardStdout skips capturing standard output into Result.Stdout.
	DiscardStdout bool
}

type Result struct {
	Stdout   []byte
	ExitCode int
}

// Success reports whether the child exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes a child process to completion. A non-zero exit status is
// reported through Result.ExitCode; the error return is reserved for failures
// to launch or wait on the child.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdoutBuf bytes.Buffer
	var stdoutWriter io.Writer = &stdoutBuf
	if opts.DiscardStdout {
		stdoutWriter = io.Discard
	}
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(stdoutWriter, opts.Stdout)
	}
	cmd.Stdout = stdoutWriter
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	}

	err := cmd.Run()
	res := Result{Stdout: stdoutBuf.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			// ExitCode is -1 when the child was killed by a signal.
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

var _ Runner = CmdRunner{}

// CommandLine renders a command and its arguments the way a shell would
// accept them, for logs and diagnostics.
func CommandLine(command string, args []string) string {
	return shellquote.Join(append([]string{command}, args...)...)
}

// SplitFlags splits a flags string using shell word rules. Blank input yields
// no flags.
func SplitFlags(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return shellquote.Split(value)
}
