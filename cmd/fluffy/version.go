package main

import (
	"fmt"

	"github.com/alexandre-normand/fluffy"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluffy version %s\n", fluffy.VERSION)
	},
}
