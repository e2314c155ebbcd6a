package searxng

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"searxng-mcp/internal/domain/search"
)

// ValidationError represents a malformed upstream document.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ValidateSearchResponse rejects a nil document, drops results without a URL
// and replaces absent lists with empty ones so callers always see arrays.
// An empty result list is a valid answer.
func ValidateSearchResponse(resp *search.SearchResponse) error {
	if resp == nil {
		return ValidationError{Field: "response", Message: "response is nil"}
	}

	valid := make([]search.Result, 0, len(resp.Results))
	for idx, result := range resp.Results {
		if strings.TrimSpace(result.URL) == "" {
			log.Warn().
				Int("index", idx).
				Str("title", result.Title).
				Msg("searxng result missing url, dropping")
			continue
		}
		valid = append(valid, result)
	}
	resp.Results = valid

	if resp.Answers == nil {
		resp.Answers = []any{}
	}
	if resp.Corrections == nil {
		resp.Corrections = []string{}
	}
	if resp.Infoboxes == nil {
		resp.Infoboxes = []map[string]any{}
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	if resp.UnresponsiveEngines == nil {
		resp.UnresponsiveEngines = [][]string{}
	}
	return nil
}
