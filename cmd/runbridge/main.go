package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "runbridge",
		Short: "Bridge between chat transports and an OpenAI assistant",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge: chat adapters, assistant orchestrator, and admin API",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
