package rustc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"buildprobe/internal/runner"
)

// attempt is one way of asking the compiler to target the session's triple.
type attempt struct {
	label  string
	target string // empty: invoke without --target
}

// attempts lists the invocation strategies in priority order. A compiler whose
// file name starts with the triple's short name is a target-prefixed cross
// compiler and is only ever invoked without --target.
func (s *session) attempts() []attempt {
	name := s.target.Name()
	if strings.HasPrefix(filepath.Base(s.compiler), name) {
		return []attempt{{label: "self-named"}}
	}
	return []attempt{
		{label: "short name", target: name},
		{label: "canonical", target: s.target.String()},
		{label: "vendor-normalized", target: s.target.Normalized().String()},
	}
}

// resolveTarget finds the first invocation the compiler accepts and derives
// the artifact naming from it. On success the --target argument that worked
// is appended to the session flags.
func (s *session) resolveTarget(ctx context.Context) (Naming, error) {
	for _, a := range s.attempts() {
		naming, ok, err := s.try(ctx, a)
		if err != nil {
			return Naming{}, err
		}
		if !ok {
			s.logger.Printf("target %s: %s attempt rejected", s.target.Name(), a.label)
			continue
		}

		if a.target != "" {
			naming.Target = a.target
			s.flags = append(s.flags, "--target", a.target)
		} else {
			naming.Target = s.target.Name()
		}
		s.logger.Printf("target %s: %s attempt accepted (%s)", s.target.Name(), a.label, naming.Target)
		return naming, nil
	}

	return Naming{}, unsupported(s.compiler, s.target.Name(), "could not determine how to compile for target", nil)
}

// try runs a single file-name prediction. ok is false when the compiler
// rejected the invocation; err is set only for failures that must stop the
// session.
func (s *session) try(ctx context.Context, a attempt) (Naming, bool, error) {
	args := append([]string(nil), s.flags...)
	args = append(args, "--crate-name", probeStem, "--crate-type", crateTypeList())
	if a.target != "" {
		args = append(args, "--target", a.target)
	}
	args = append(args, "--print", "file-names", s.source)

	res, err := s.run(ctx, s.compiler, args, runner.Options{})
	if err != nil {
		return Naming{}, false, fmt.Errorf("invoke %s: %w", s.compiler, err)
	}
	if !res.Success() {
		return Naming{}, false, nil
	}

	naming, err := ParseFileNames(res.Stdout, probeStem)
	if err != nil {
		return Naming{}, false, unsupported(s.compiler, "", "could not determine file names from invoking", err)
	}
	return naming, true, nil
}
