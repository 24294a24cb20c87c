package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	execModel  string
	execType   string
	execAgents []string
	execTools  []string
)

func init() {
	executeCmd.Flags().StringVar(&execModel, "model", "", "model identifier (default: gateway default)")
	executeCmd.Flags().StringVar(&execType, "type", "simple", "execution type: simple or orchestrator")
	executeCmd.Flags().StringSliceVar(&execAgents, "agent", nil, "agent to include (orchestrator only, repeatable)")
	executeCmd.Flags().StringSliceVar(&execTools, "tool", nil, "tool to allow (orchestrator only, repeatable)")
	rootCmd.AddCommand(executeCmd)
}

var executeCmd = &cobra.Command{
	Use:   "execute <prompt>",
	Short: "Run a prompt through the lab",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]interface{}{
			"prompt":         strings.Join(args, " "),
			"execution_type": execType,
		}
		if execModel != "" {
			req["model"] = execModel
		}
		if len(execAgents) > 0 {
			req["agents"] = execAgents
		}
		if len(execTools) > 0 {
			req["tools"] = execTools
		}

		result, err := client.Execute(req)
		if err != nil {
			return fmt.Errorf("execute failed: %w", err)
		}

		fmt.Printf("status: %s (%dms)\n", result.Status, result.Metrics.LatencyMS)
		if len(result.Flow) > 0 {
			fmt.Println("flow:")
			for _, node := range result.Flow {
				fmt.Printf("  %d. %-12s %s\n", node.Position+1, node.Name, node.Status)
			}
		}
		fmt.Println()
		fmt.Println(result.Output)
		return nil
	},
}
