package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TimeRange restricts results by publication date.
type TimeRange string

const (
	TimeRangeAny   TimeRange = ""
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// Valid reports whether t is one of the ranges SearXNG understands.
func (t TimeRange) Valid() bool {
	switch t {
	case TimeRangeAny, TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear:
		return true
	default:
		return false
	}
}

// StringList decodes from either a JSON array of strings or a single
// comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = cleanList(list)
		return nil
	}
	var joined *string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("expected a string or an array of strings")
	}
	if joined == nil {
		*l = nil
		return nil
	}
	*l = SplitList(*joined)
	return nil
}

// SplitList splits a comma-separated value, dropping blank entries.
func SplitList(joined string) StringList {
	return cleanList(strings.Split(joined, ","))
}

func cleanList(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SearchRequest is the caller-facing search request.
type SearchRequest struct {
	Query      string     `json:"query"`
	Categories StringList `json:"categories,omitempty"`
	Engines    StringList `json:"engines,omitempty"`
	Language   *string    `json:"language,omitempty"`
	TimeRange  *TimeRange `json:"time_range,omitempty"`
	PageNo     *int       `json:"pageno,omitempty"`
	MaxResults *int       `json:"max_results,omitempty"`
}

// Query is a validated request as sent upstream.
type Query struct {
	Q          string
	Categories []string
	Engines    []string
	Language   string
	TimeRange  TimeRange
	PageNo     int
	MaxResults int
}

// Result is one upstream search hit.
type Result struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Engine        string   `json:"engine"`
	Engines       []string `json:"engines,omitempty"`
	Score         float64  `json:"score"`
	Category      string   `json:"category,omitempty"`
	PublishedDate *string  `json:"publishedDate,omitempty"`
}

// SearchResponse mirrors the SearXNG JSON document, with results cut to the
// requested count.
type SearchResponse struct {
	Query               string           `json:"query"`
	NumberOfResults     float64          `json:"number_of_results"`
	Results             []Result         `json:"results"`
	Answers             []any            `json:"answers"`
	Corrections         []string         `json:"corrections"`
	Infoboxes           []map[string]any `json:"infoboxes"`
	Suggestions         []string         `json:"suggestions"`
	UnresponsiveEngines [][]string       `json:"unresponsive_engines"`
}
