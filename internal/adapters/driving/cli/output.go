package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// styled reports whether output goes to a terminal.
func styled(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func render(cmd *cobra.Command, style lipgloss.Style, s string) string {
	if !styled(cmd) {
		return s
	}
	return style.Render(s)
}

func typeStyle(t domain.ResultType) lipgloss.Style {
	switch t {
	case domain.ResultOk:
		return okStyle
	case domain.ResultEmpty, domain.ResultNotFound:
		return warnStyle
	default:
		return errStyle
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// printResponse writes one line per result, or the JSON result list.
func printResponse[T any](cmd *cobra.Command, resp domain.Response[T], content func(T) string) error {
	if outputJSON {
		return printJSON(cmd, resp)
	}
	results := resp.Results()
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results.")
		return nil
	}
	for _, r := range results {
		line := fmt.Sprintf("%-18s %s", render(cmd, typeStyle(r.Type), r.Type.String()), r.Request)
		switch {
		case r.Type == domain.ResultOk && content != nil:
			line += "  " + content(r.Content)
		case r.Message != "":
			line += "  " + render(cmd, mutedStyle, r.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render(cmd, mutedStyle, fmt.Sprintf("%d results in %s", len(results), resp.Duration())))
	return nil
}

// describe summarizes an entity for table output.
func describe(e domain.Entity) string {
	raw, err := json.Marshal(e)
	if err != nil {
		return e.EntityUUID()
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return e.EntityUUID()
	}
	var parts []string
	for _, key := range []string{"path", "key", "value", "id", "dataType", "batchId", "sequence"} {
		if v, ok := fields[key]; ok && v != "" {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(parts) == 0 {
		return e.EntityUUID()
	}
	return strings.Join(parts, " ")
}
