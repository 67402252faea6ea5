package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ignis-bootstrap",
		Short: "Ignis Bootstrap - custom execution runtime host",
		Long:  "Polls a provider control endpoint for invocation events, dispatches them to the configured handler, and posts results back",
	}

	rootCmd.AddCommand(
		runCmd(),
		emulatorCmd(),
		invokeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
