package main

import (
	"github.com/spf13/cobra"

	"searxng-mcp/internal/domain/crawl"
	"searxng-mcp/internal/infrastructure"
	"searxng-mcp/internal/infrastructure/linkextract"
)

func newCrawlCmd() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Fetch a page and the subpages whose anchor text matches",
		Long: `Fetch the root page, then up to --limit linked pages whose anchor text
contains any --filter (case-insensitive). Without filters every link qualifies.`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawl,
	}

	crawlCmd.Flags().StringArrayP("filter", "f", nil, "Anchor text substring (repeatable)")
	crawlCmd.Flags().StringArrayP("header", "H", nil, "Request header as 'Name: value' (repeatable)")
	crawlCmd.Flags().Int("limit", crawl.DefaultSubpageLimit, "Maximum subpages to fetch (1-20)")
	crawlCmd.Flags().Int("max-content-length", 0, "Maximum characters of text per page (0 for the 1 MiB ceiling)")
	return crawlCmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	headers, err := headersFromFlags(cmd)
	if err != nil {
		return err
	}
	filters, _ := cmd.Flags().GetStringArray("filter")
	limit, _ := cmd.Flags().GetInt("limit")
	maxLen, _ := cmd.Flags().GetInt("max-content-length")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pageFetcher := infrastructure.ProvideFetcher(cfg)
	engine := crawl.NewEngine(
		pageFetcher,
		linkextract.NewExtractor(),
		infrastructure.ProvidePolicyFactory(cfg),
		infrastructure.ProvideEngineConfig(cfg),
	)
	service := crawl.NewCrawlService(engine)

	result, err := service.Crawl(cmd.Context(), crawl.Request{
		URL:              args[0],
		Filters:          filters,
		Headers:          headers,
		SubpageLimit:     &limit,
		MaxContentLength: maxLen,
	})
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}
