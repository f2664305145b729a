// Command fluffy runs a fluffy bot with the stock handlers
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fluffy",
	Short: "fluffy is a slack bot reacting to commands and phrases",
	Long: `fluffy connects to slack over a real time session and replies to messages
matching its commands, listeners and exact phrases.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	Execute()
}
