package main

import (
	"fmt"
	"os"

	"github.com/aretw0/palaver/internal/cli"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents visible to your API key",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListAgents(cmd.Context(), sharedOptions(cmd)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().Bool("json", false, "Print the listing as JSON")
}
