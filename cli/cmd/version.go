package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var Version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and gateway version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("agentlab cli %s\n", Version)

		v, err := client.Version()
		if err != nil {
			fmt.Println("gateway unreachable")
			return nil
		}
		fmt.Printf("gateway %s\n", v)
		return nil
	},
}
