package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"agentlab/cli/api"
)

var (
	apiURL string
	client *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "agentlab",
	Short: "CLI for the Agent Lab gateway",
	Long: `agentlab is a command line client for the Agent Lab gateway.

Routes prompts to the Lab Service as single-shot inference or
orchestrated multi-agent workflows.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		client = api.New(apiURL)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultURL := os.Getenv("AGENTLAB_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8900"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "gateway API URL")
}
