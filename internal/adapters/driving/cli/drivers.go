package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

var driversMetrics bool

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Show driver availability and routes",
	RunE:  runDrivers,
}

var driversRunCmd = &cobra.Command{
	Use:   "run <driver> <command> [key=value]...",
	Short: "Run a driver command",
	Long: `Runs a maintenance command on a driver. Buffered drivers understand
"flush" and "metrics".`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDriverCommand,
}

func init() {
	driversCmd.Flags().BoolVar(&driversMetrics, "metrics", false, "show write buffer metrics")
	driversCmd.AddCommand(driversRunCmd)
	rootCmd.AddCommand(driversCmd)
}

func runDrivers(cmd *cobra.Command, _ []string) error {
	if driverService == nil {
		return errors.New("driver service not configured")
	}
	if driversMetrics {
		return printBufferMetrics(cmd, driverService.BufferMetrics())
	}

	statuses := driverService.Drivers()
	if outputJSON {
		return printJSON(cmd, statuses)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No drivers configured.")
		return nil
	}
	for _, s := range statuses {
		state := render(cmd, okStyle, "available")
		if !s.Available {
			state = render(cmd, errStyle, "unavailable")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", render(cmd, titleStyle, s.ID), state, render(cmd, mutedStyle, s.Message))

		types := make([]string, 0, len(s.Routes))
		for t := range s.Routes {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			caps := make([]string, 0, len(s.Routes[domain.EntityType(t)]))
			for _, c := range s.Routes[domain.EntityType(t)] {
				caps = append(caps, string(c))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", t, strings.Join(caps, ", "))
		}
	}
	return nil
}

func printBufferMetrics(cmd *cobra.Command, metrics []domain.BufferMetrics) error {
	if outputJSON {
		return printJSON(cmd, metrics)
	}
	if len(metrics) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No buffered drivers.")
		return nil
	}
	for _, m := range metrics {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", render(cmd, titleStyle, m.DriverID), m.EntityType)
		fmt.Fprintf(cmd.OutOrStdout(), "  queue  %d/%d items, %d total, %.1f items/s\n",
			m.Queue.Count, m.Queue.Limit, m.Queue.TotalItemCount, m.Queue.ItemRate)
		fmt.Fprintf(cmd.OutOrStdout(), "  file   %d items, pages %d..%d, %d total\n",
			m.File.Count, m.File.ReadPageSequence, m.File.WritePageSequence, m.File.TotalItemCount)
	}
	return nil
}

func runDriverCommand(cmd *cobra.Command, args []string) error {
	if driverService == nil {
		return errors.New("driver service not configured")
	}
	params := make(map[string]string, len(args)-2)
	for _, kv := range args[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: parameter %q: want key=value", domain.ErrInvalidInput, kv)
		}
		params[k] = v
	}

	resp, err := driverService.Run(context.Background(), args[0], args[1], params)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, domain.NewCommandJSONResponse(resp))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status %d\n", resp.StatusCode)
	keys := make([]string, 0, len(resp.Parameters))
	for k := range resp.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s=%s\n", k, resp.Parameters[k])
	}
	if len(resp.Content) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), string(resp.Content))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("command %s on %s failed with status %d", args[1], args[0], resp.StatusCode)
	}
	return nil
}
