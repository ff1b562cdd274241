package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"buildprobe/internal/config"
	"buildprobe/internal/logx"
	"buildprobe/internal/paths"
	"buildprobe/internal/rustc"
	"buildprobe/internal/target"
	"buildprobe/internal/tui"
)

var (
	probeTarget      string
	probeCross       bool
	probeCompiler    string
	probeMinVersion  string
	probeNoProgress  bool
	probeKeepScratch bool
	probeTimeout     time.Duration
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Locate the Rust compiler for a target and validate it",
		Args:  cobra.NoArgs,
		RunE:  runProbe,
	}

	cmd.Flags().StringVar(&probeTarget, "target", "", "Target triple (default: the rustc program's compiler-target)")
	cmd.Flags().BoolVar(&probeCross, "cross", false, "Treat the session as cross compiling (default: target differs from build)")
	cmd.Flags().StringVar(&probeCompiler, "compiler", "", "Compiler to use instead of the environment and PATH")
	cmd.Flags().StringVar(&probeMinVersion, "min-version", "", "Fail unless the compiler is at least this version")
	cmd.Flags().BoolVar(&probeNoProgress, "no-progress", false, "Disable the interactive progress view")
	cmd.Flags().BoolVar(&probeKeepScratch, "keep-scratch", false, "Keep the scratch directory for inspection")
	cmd.Flags().DurationVar(&probeTimeout, "timeout", 0, "Abort the probe after this long (default: no limit)")
	return cmd
}

// probeResult is the JSON document written by `probe --json`.
type probeResult struct {
	Target    target.Target   `json:"target"`
	Cross     bool            `json:"cross"`
	Toolchain rustc.Toolchain `json:"toolchain"`
	Scratch   string          `json:"scratch,omitempty"`
}

func runProbe(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

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

	_, rustcProgram, _ := cfg.FirstProgram(config.ProgramRustc)

	tgt, err := probeTargetFor(rustcProgram, triples)
	if err != nil {
		return err
	}
	cross := !tgt.Equal(triples.Build)
	if cmd.Flags().Changed("cross") {
		cross = probeCross
	}

	timeout := cfg.Probe.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = probeTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	minVersion := cfg.Probe.MinimumVersion
	if probeMinVersion != "" {
		minVersion = probeMinVersion
	}

	dir := logDir
	if dir == "" {
		if dir, err = paths.GlobalLogsDir(); err != nil {
			return err
		}
	}
	logger, closer, err := logx.New(dir)
	if err != nil {
		return err
	}
	defer closer.Close()

	scratch, cleanup, err := paths.NewScratchDir("")
	if err != nil {
		return err
	}
	if !probeKeepScratch {
		defer cleanup()
	}

	opts := rustc.Options{
		Target:         tgt,
		CrossCompiling: cross,
		ScratchDir:     scratch,
		Compiler:       probeCompiler,
		CompilerEnv:    cfg.Probe.CompilerEnv,
		FlagsEnv:       cfg.Probe.FlagsEnv,
		DefaultFlags:   cfg.Probe.DefaultFlags,
		Candidates:     rustcProgram.NamesOr(rustc.DefaultCandidates(tgt)),
		Logger:         logger,
	}
	logger.Printf("probe: config=%s target=%s cross=%v scratch=%s", pp.ConfigFile, tgt.Name(), cross, scratch)

	tc, err := probeWithProgress(ctx, cmd, opts)
	if err != nil {
		logger.Printf("probe failed: %v", err)
		return err
	}

	if minVersion != "" {
		ok, err := tc.Version.AtLeast(minVersion)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s at %s is older than the required %s", tc.Version, tc.Path, minVersion)
		}
	}
	logger.Printf("probe succeeded: %s %s no_std=%v", tc.Path, tc.Version, tc.NoStd)

	result := probeResult{Target: tgt, Cross: cross, Toolchain: tc}
	if probeKeepScratch {
		result.Scratch = scratch
	}
	if outputJSON {
		return writeJSON(cmd, result)
	}
	printToolchain(cmd.OutOrStdout(), result)
	return nil
}

func probeTargetFor(program config.Program, triples config.Triples) (target.Target, error) {
	if probeTarget != "" {
		return target.Parse(probeTarget)
	}
	if program.CompilerTarget == "" {
		return triples.Target, nil
	}
	return program.CompilerTarget.Resolve(triples)
}

func probeWithProgress(ctx context.Context, cmd *cobra.Command, opts rustc.Options) (rustc.Toolchain, error) {
	switch tui.DetectMode(cmd.OutOrStdout(), probeNoProgress, outputJSON) {
	case tui.ModeTUI:
		var tc rustc.Toolchain
		model := tui.NewProbeModel("probing " + opts.Target.Name())
		err := tui.RunWithWork(ctx, cmd.OutOrStdout(), model, func(ctx context.Context, send func(tea.Msg)) error {
			opts.Reporter = tui.NewProbeReporter(send)
			var err error
			tc, err = rustc.Probe(ctx, opts)
			return err
		})
		return tc, err
	case tui.ModePlain:
		opts.Reporter = tui.NewLineReporter(cmd.ErrOrStderr())
	}
	return rustc.Probe(ctx, opts)
}

func printToolchain(out io.Writer, res probeResult) {
	tc := res.Toolchain
	fmt.Fprintln(out, boldStyle.Render("TOOLCHAIN:")+" "+res.Target.Name())
	printField(out, "compiler", tc.Path)
	printField(out, "version", tc.Version.String())
	printField(out, "flags", tui.NonEmptyOrDash(shellquote.Join(tc.Flags...)))
	printField(out, "target", tc.Naming.Target)
	printField(out, "cross", fmt.Sprint(res.Cross))

	std := greenStyle.Render("std")
	if tc.NoStd {
		std = yellowStyle.Render("no_std")
	}
	printField(out, "library", std)
	if res.Scratch != "" {
		printField(out, "scratch", res.Scratch)
	}

	fmt.Fprintln(out, boldStyle.Render("ARTIFACTS:"))
	for _, kind := range rustc.CrateTypes() {
		printField(out, kind.String(), tc.Naming.FileName(kind, "{name}"))
	}
}
