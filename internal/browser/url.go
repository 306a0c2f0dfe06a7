package browser

import (
	"net/url"
	"strconv"

	"github.com/bexardata/deedcrawler/internal/window"
)

// SearchConfig parameterizes the portal's results URL.
type SearchConfig struct {
	BaseURL    string
	Department string
	DocTypes   string
	PageSize   int
	SortBy     string
	SortOrder  string
}

// SearchURL builds the results URL for one page of a windowed search.
func SearchURL(cfg SearchConfig, win window.Window, offset int) string {
	q := url.Values{}
	q.Set("department", cfg.Department)
	q.Set("docTypes", cfg.DocTypes)
	q.Set("limit", strconv.Itoa(cfg.PageSize))
	q.Set("recordedDateRange", win.Start+","+win.End)
	q.Set("searchType", "advancedSearch")
	q.Set("sort", cfg.SortOrder)
	q.Set("sortBy", cfg.SortBy)
	q.Set("offset", strconv.Itoa(offset))
	return cfg.BaseURL + "?" + q.Encode()
}
