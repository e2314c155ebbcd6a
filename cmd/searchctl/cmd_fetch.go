package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/infrastructure"
)

func newFetchCmd() *cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a page and print its cleaned text",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}

	fetchCmd.Flags().StringArrayP("header", "H", nil, "Request header as 'Name: value' (repeatable)")
	fetchCmd.Flags().Int("max-content-length", 0, "Maximum characters of text (0 for the 1 MiB ceiling)")
	return fetchCmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	headers, err := headersFromFlags(cmd)
	if err != nil {
		return err
	}
	maxLen, _ := cmd.Flags().GetInt("max-content-length")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	service := fetch.NewFetchService(infrastructure.ProvideFetcher(cfg))

	page, err := service.Fetch(cmd.Context(), fetch.Request{URL: args[0], Headers: headers, MaxContentLength: maxLen})
	if err != nil && page == nil {
		return err
	}
	if printErr := printResult(cmd, page); printErr != nil {
		return printErr
	}
	return err
}

func headersFromFlags(cmd *cobra.Command) (map[string]string, error) {
	raw, _ := cmd.Flags().GetStringArray("header")
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}
