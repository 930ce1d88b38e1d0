// Package cli implements the wahisper CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "wahisper",
	Short: "Conversational shopping bot",
	Long:  "A conversational shopping bot core: session state machine, stock-aware cart, checkout orchestration and an HTTP gateway.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
			return nil
		}
		// A missing default .env is fine.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env if present)")
	RootCmd.AddCommand(serveCmd, seedCmd)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
