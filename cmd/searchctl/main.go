package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"searxng-mcp/internal/infrastructure/logger"
)

var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "One-shot search, fetch and crawl from the command line",
	Long: `searchctl runs the same search, fetch and crawl services as the server,
in-process, and prints the result.

Configuration is read from the same environment variables as the server
(SEARXNG_URL, FETCH_TIMEOUT_SECONDS, CRAWL_WORKERS, ...).

Examples:
  searchctl search "golang generics" --max-results 5
  searchctl fetch https://go.dev/doc/ --max-content-length 2000
  searchctl crawl https://go.dev/doc/ --filter tutorial --limit 3 -o yaml`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logger.Init(level, "console")
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newCrawlCmd())

	rootCmd.PersistentFlags().StringP("output", "o", formatJSON, "Output format: json, yaml")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level written to stderr")
}
