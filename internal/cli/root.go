package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputJSON bool
	logDir     string
)

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "buildprobe",
		Short:         "Locate and validate Rust toolchains for a build",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to buildprobe.yaml (default: ./buildprobe.yaml)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for probe logs (default: ~/.buildprobe/logs)")

	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newProgramsCmd())
	cmd.AddCommand(newWhichCmd())
	cmd.AddCommand(newTargetCmd())
	cmd.AddCommand(newVersionLineCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
