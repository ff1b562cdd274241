package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"buildprobe/internal/config"
	"buildprobe/internal/paths"
	"buildprobe/internal/rustc"
	"buildprobe/internal/which"
)

func newProgramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "Locate every program declared in the configuration",
		Args:  cobra.NoArgs,
		RunE:  runPrograms,
	}
}

type programStatus struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Target     string   `json:"target,omitempty"`
	Candidates []string `json:"candidates"`
	Path       string   `json:"path,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func runPrograms(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	triples, err := cfg.Triples()
	if err != nil {
		return err
	}

	statuses := make([]programStatus, 0, len(cfg.Programs))
	for _, name := range cfg.ProgramNames() {
		statuses = append(statuses, locateProgram(name, cfg.Programs[name], triples))
	}

	if outputJSON {
		return writeJSON(cmd, statuses)
	}
	printProgramTable(cmd, statuses)
	return nil
}

func locateProgram(name string, p config.Program, triples config.Triples) programStatus {
	st := programStatus{Name: name, Type: string(p.Type)}

	defaults := []string{name}
	if p.Type.IsCompiler() {
		t, err := p.CompilerTarget.Resolve(triples)
		if err != nil {
			st.Error = err.Error()
			return st
		}
		st.Target = t.Name()
		if p.Type == config.ProgramRustc {
			defaults = rustc.DefaultCandidates(t)
		}
	}
	st.Candidates = p.NamesOr(defaults)

	path, err := which.FindAnyInEnv(st.Candidates...)
	switch {
	case errors.Is(err, which.ErrNotFound):
		st.Error = "not found"
	case err != nil:
		st.Error = err.Error()
	default:
		st.Path = path
	}
	return st
}

func printProgramTable(cmd *cobra.Command, statuses []programStatus) {
	if len(statuses) == 0 {
		cmd.Println("(no programs declared)")
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %-8s %-28s %-6s %s\n", "Program", "Type", "Target", "OK", "Path")
	for _, st := range statuses {
		ok := greenStyle.Render("yes")
		path := st.Path
		if st.Path == "" {
			ok = redStyle.Render("no ")
			path = faintStyle.Render("(missing)")
		}
		target := st.Target
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(out, "%-12s %-8s %-28s %-6s %s\n", st.Name, st.Type, target, ok, path)
		if st.Error != "" && st.Error != "not found" {
			fmt.Fprintf(out, "  error: %s\n", st.Error)
		}
	}
}
