package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildprobe/internal/target"
)

func newTargetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target [TRIPLE]",
		Short: "Show how a target triple is understood (default: this machine)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTarget,
	}
}

type targetInfo struct {
	Name         string `json:"name"`
	Canonical    string `json:"canonical"`
	Normalized   string `json:"normalized"`
	Arch         string `json:"arch"`
	Vendor       string `json:"vendor"`
	OS           string `json:"os"`
	Env          string `json:"env,omitempty"`
	ObjectFormat string `json:"object_format,omitempty"`
}

func describeTarget(t target.Target) targetInfo {
	return targetInfo{
		Name:         t.Name(),
		Canonical:    t.String(),
		Normalized:   t.Normalized().String(),
		Arch:         t.Arch(),
		Vendor:       t.Vendor(),
		OS:           t.OS(),
		Env:          t.Env(),
		ObjectFormat: t.ObjectFormat(),
	}
}

func runTarget(cmd *cobra.Command, args []string) error {
	t := target.Host()
	if len(args) == 1 {
		var err error
		if t, err = target.Parse(args[0]); err != nil {
			return err
		}
	}

	info := describeTarget(t)
	if outputJSON {
		return writeJSON(cmd, info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, boldStyle.Render("TARGET:")+" "+info.Name)
	printField(out, "canonical", info.Canonical)
	printField(out, "normalized", info.Normalized)
	printField(out, "arch", info.Arch)
	printField(out, "vendor", info.Vendor)
	printField(out, "os", info.OS)
	if info.Env != "" {
		printField(out, "env", info.Env)
	}
	if info.ObjectFormat != "" {
		printField(out, "objfmt", info.ObjectFormat)
	}
	return nil
}
