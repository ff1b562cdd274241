package rustc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"buildprobe/internal/runner"
)

const (
	hostedSource       = "fn main(){}\n"
	freestandingSource = "#![no_std]\n"
)

// validate proves the toolchain produces usable output. A full binary is tried
// first and, unless cross compiling, executed. If the binary does not build,
// a no_std library is tried instead; success there marks the toolchain as
// freestanding only.
func (s *session) validate(ctx context.Context, naming Naming) (bool, error) {
	exe := filepath.Join(s.scratch, naming.FileName(CrateBin, probeStem))
	built, err := s.compile(ctx, CrateBin, exe)
	if err != nil {
		return false, err
	}
	if built {
		if s.cross {
			s.logger.Printf("validate: cross compiling, not executing %s", exe)
			return false, nil
		}
		res, err := s.run(ctx, exe, nil, runner.Options{DiscardStdout: true})
		if err != nil {
			return false, fmt.Errorf("execute %s: %w", exe, err)
		}
		if !res.Success() {
			return false, unsupported(s.compiler, s.target.Name(), "cannot execute binaries produced by", nil)
		}
		return false, nil
	}

	s.logger.Printf("validate: binary build failed, retrying as no_std library")
	if err := os.WriteFile(s.source, []byte(freestandingSource), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", s.source, err)
	}
	lib := filepath.Join(s.scratch, naming.FileName(CrateRlib, probeStem))
	built, err = s.compile(ctx, CrateRlib, lib)
	if err != nil {
		return false, err
	}
	if !built {
		return false, unsupported(s.compiler, s.target.Name(), "cannot compile simple test program with", nil)
	}
	return true, nil
}

func (s *session) compile(ctx context.Context, kind CrateType, output string) (bool, error) {
	args := append([]string(nil), s.flags...)
	args = append(args,
		"--crate-type", kind.String(),
		"--emit", "link="+output,
		"--crate-name", probeStem,
		s.source,
	)
	res, err := s.run(ctx, s.compiler, args, runner.Options{DiscardStdout: true})
	if err != nil {
		return false, fmt.Errorf("invoke %s: %w", s.compiler, err)
	}
	return res.Success(), nil
}
