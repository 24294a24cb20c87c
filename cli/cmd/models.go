package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modelsCmd)
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List allowed models",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := client.Models()
		if err != nil {
			return fmt.Errorf("list models failed: %w", err)
		}
		for _, m := range catalog.Models {
			line := m.Name
			if m.Provider != "" {
				line += " (" + m.Provider + ")"
			}
			if m.Default {
				line += " [default]"
			}
			fmt.Println(line)
		}
		return nil
	},
}
