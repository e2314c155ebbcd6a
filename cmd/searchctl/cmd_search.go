package main

import (
	"strings"

	"github.com/spf13/cobra"

	"searxng-mcp/internal/domain/search"
	"searxng-mcp/internal/infrastructure"
)

func newSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query SearXNG",
		Long:  `Run a metasearch query against the configured SearXNG instance.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	searchCmd.Flags().String("categories", "", "Comma separated categories")
	searchCmd.Flags().String("engines", "", "Comma separated engines")
	searchCmd.Flags().StringP("language", "l", "", "Result language (default from SEARCH_DEFAULT_LANGUAGE)")
	searchCmd.Flags().String("time-range", "", "day, week, month or year")
	searchCmd.Flags().Int("page", 1, "Result page")
	searchCmd.Flags().IntP("max-results", "n", search.DefaultMaxResults, "Maximum results (1-100)")
	return searchCmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := searchRequestFromFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	service := search.NewSearchService(infrastructure.ProvideSearxngClient(cfg), infrastructure.ProvideSearchSettings(cfg))

	resp, err := service.Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printResult(cmd, resp)
}

func searchRequestFromFlags(cmd *cobra.Command, args []string) (search.SearchRequest, error) {
	flags := cmd.Flags()
	categories, _ := flags.GetString("categories")
	engines, _ := flags.GetString("engines")
	language, _ := flags.GetString("language")
	timeRange, _ := flags.GetString("time-range")
	page, _ := flags.GetInt("page")
	maxResults, _ := flags.GetInt("max-results")

	req := search.SearchRequest{
		Query:      strings.Join(args, " "),
		Categories: search.SplitList(categories),
		Engines:    search.SplitList(engines),
		PageNo:     &page,
		MaxResults: &maxResults,
	}
	if language != "" {
		req.Language = &language
	}
	if timeRange != "" {
		tr := search.TimeRange(timeRange)
		req.TimeRange = &tr
	}
	return req, nil
}
