package main

import (
	"fmt"
	"os"

	"github.com/aretw0/palaver/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "palaver",
	Short: "Palaver talks to remote AI agents",
	Long: `Palaver holds multi-turn conversations with agents hosted behind the MAXIAI chat API.

Configure it with MAXIAI_API_KEY and MAXIAI_AGENT_ID (environment, .env or palaver.yaml).
Running palaver without a subcommand starts a chat.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sharedOptions reads the persistent flags that were explicitly set.
func sharedOptions(cmd *cobra.Command) cli.Options {
	configFile, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	baseURL, _ := cmd.Flags().GetString("base-url")
	agentID, _ := cmd.Flags().GetString("agent")
	jsonMode, _ := cmd.Flags().GetBool("json")

	return cli.Options{
		ConfigFile: configFile,
		Debug:      debug,
		BaseURL:    baseURL,
		AgentID:    agentID,
		JSON:       jsonMode,
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default palaver.yaml when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().String("base-url", "", "Override the remote API base URL")
	rootCmd.PersistentFlags().StringP("agent", "a", "", "Agent id to talk to (overrides MAXIAI_AGENT_ID)")
}
