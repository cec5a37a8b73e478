package main

import (
	"fmt"
	"os"

	"github.com/aretw0/palaver/internal/cli"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the configured agent",
	Long: `Starts an interactive conversation with the configured agent.

Commands inside the chat:
  /suggest   list suggested questions (empty conversation only)
  /1 .. /4   ask a suggested question
  /clear     start a new conversation
  /quit      leave`,
	Run: func(cmd *cobra.Command, args []string) {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := cli.RunChat(sigCtx, sharedOptions(cmd)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")

	// 'chat' is the default when no command is provided.
	rootCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	rootCmd.Run = chatCmd.Run
}
