package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(readyCmd)
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Aliases: []string{"doctor"},
	Short:   "Check gateway and upstream health",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := client.Health()
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		fmt.Printf("agentlab health: %s\n\n", report.Status)
		for name, comp := range report.Components {
			mark := "ok"
			if comp.Status != "ok" {
				mark = comp.Status
			}
			fmt.Printf("  %-10s %s", name, mark)
			if comp.LatencyMS > 0 {
				fmt.Printf(" (%dms)", comp.LatencyMS)
			}
			if comp.Details != "" {
				fmt.Printf(" (%s)", comp.Details)
			}
			fmt.Println()
		}
		return nil
	},
}

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Check whether the gateway accepts traffic",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, ready, err := client.Ready()
		if err != nil {
			return fmt.Errorf("readiness check failed: %w", err)
		}
		if ready {
			fmt.Printf("ready (%s)\n", status)
			return nil
		}
		return fmt.Errorf("not ready (%s)", status)
	},
}
