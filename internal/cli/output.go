package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	boldStyle   = lipgloss.NewStyle().Bold(true).Inline(true)
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true).Inline(true)
)

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printField(out io.Writer, label, value string) {
	fmt.Fprintf(out, "  %s %s\n", faintStyle.Render(fmt.Sprintf("%-11s", label+":")), value)
}

func levelLabel(level string) string {
	switch level {
	case "ok":
		return greenStyle.Render("OK")
	case "warning":
		return yellowStyle.Render("WARN")
	case "error":
		return redStyle.Render("ERROR")
	default:
		return level
	}
}
