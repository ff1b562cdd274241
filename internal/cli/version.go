package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"buildprobe/internal/rustc"
)

var versionLineMin string

func newVersionLineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version-line LINE",
		Short:   "Parse a compiler version line as the probe would",
		Example: `  buildprobe version-line "$(rustc --version)"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runVersionLine,
	}
	cmd.Flags().StringVar(&versionLineMin, "min-version", "", "Also check the version against a minimum")
	return cmd
}

type versionReport struct {
	rustc.Version
	Minimum   string `json:"minimum,omitempty"`
	Satisfied *bool  `json:"satisfied,omitempty"`
}

func runVersionLine(cmd *cobra.Command, args []string) error {
	line := strings.Join(args, " ")
	v, err := rustc.ParseVersion(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}

	report := versionReport{Version: v}
	if versionLineMin != "" {
		ok, err := v.AtLeast(versionLineMin)
		if err != nil {
			return err
		}
		report.Minimum = versionLineMin
		report.Satisfied = &ok
	}

	if outputJSON {
		return writeJSON(cmd, report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, boldStyle.Render("VERSION:")+" "+v.String())
	printField(out, "program", v.Program)
	printField(out, "release", fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch))
	printField(out, "channel", v.Channel.String())
	if report.Satisfied != nil {
		status := greenStyle.Render("yes")
		if !*report.Satisfied {
			status = redStyle.Render("no")
		}
		printField(out, ">= "+versionLineMin, status)
	}
	return nil
}
