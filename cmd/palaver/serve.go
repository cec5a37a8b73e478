package main

import (
	"fmt"
	"os"

	"github.com/aretw0/palaver/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: `Starts palaver as an HTTP gateway exposing conversation sessions as a JSON API,
with Server-Sent Events for state changes and Prometheus metrics on /metrics.

Sessions live in memory unless a Redis address is configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		err := cli.Serve(sigCtx, cli.ServeOptions{
			Options:   sharedOptions(cmd),
			Addr:      addr,
			RedisAddr: redisAddr,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("redis-addr", "", "Redis address for shared sessions (e.g. localhost:6379)")
}
