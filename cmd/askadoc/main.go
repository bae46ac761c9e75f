package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/askadoc/askadoc/internal/cli"
	"github.com/askadoc/askadoc/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "askadoc",
		Short: "Askadoc CLI - Question answering over your documents",
		Long: `Askadoc CLI uploads documents and answers questions grounded in them.

Environment variables:
  ASKADOC_API_KEY   API key for authentication (required)
  ASKADOC_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.LogoutCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.FilesCmd())
	rootCmd.AddCommand(client.SessionCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
