package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildprobe/internal/which"
)

func newWhichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "which NAME...",
		Short: "Find the first of the given programs on PATH",
		Long: "Searches each PATH directory in order for the candidate names, also in order,\n" +
			"and prints the first match with symbolic links resolved.",
		Args: cobra.MinimumNArgs(1),
		RunE: runWhich,
	}
}

func runWhich(cmd *cobra.Command, args []string) error {
	path, err := which.FindAnyInEnv(args...)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, map[string]string{"path": path})
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
