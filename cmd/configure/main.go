package main

import (
	"fmt"
	"os"

	"github.com/kcarante/thinktasker/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "thinktasker-configure",
		Short: "Configuration tool for ThinkTasker",
		Long:  "CLI tool for managing actionable patterns and the reference corpus",
	}

	rootCmd.AddCommand(commands.NewPatternsCmd())
	rootCmd.AddCommand(commands.NewCorpusCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
