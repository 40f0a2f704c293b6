// Package tavily provides a client for the Tavily web search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// searchCacheEntry represents a cached search result.
type searchCacheEntry struct {
	results []Result
}

// Client is a Tavily API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Cache for search results; identical queries repeat when a failed
	// stage transition is retried
	searchCache map[string]*searchCacheEntry
	cacheMu     sync.RWMutex
}

// Config represents Tavily client configuration.
type Config struct {
	APIKey string
}

// Result represents a single search result.
type Result struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// searchRequest represents the request body for the search API.
type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// searchResponse represents the response from the search API.
type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// apiError represents an error response from the Tavily API.
type apiError struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

// New creates a new Tavily client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tavily API key is required")
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     "https://api.tavily.com",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		searchCache: make(map[string]*searchCacheEntry),
	}, nil
}

// Search runs a web search and returns scored results.
// Reference: https://docs.tavily.com/documentation/api-reference/endpoint/search
func (c *Client) Search(ctx context.Context, query string, maxResults int, searchDepth string) ([]Result, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 20 {
		maxResults = 20
	}
	if searchDepth == "" {
		searchDepth = "basic"
	}

	// Check cache first
	cacheKey := fmt.Sprintf("search:%s:%d:%s", query, maxResults, searchDepth)
	c.cacheMu.RLock()
	if entry, ok := c.searchCache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("using cached search results: query=%s", query)
		return entry.results, nil
	}
	c.cacheMu.RUnlock()

	payload, err := json.Marshal(searchRequest{
		Query:         query,
		SearchDepth:   searchDepth,
		MaxResults:    maxResults,
		IncludeAnswer: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	// Check for Tavily API errors
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail.Error != "" {
			return nil, errors.Errorf("tavily API error %d: %s", resp.StatusCode, apiErr.Detail.Error)
		}
		return nil, errors.Errorf("tavily API error %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	// Parse successful response
	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	results := make([]Result, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}

	// Cache result
	c.cacheMu.Lock()
	c.searchCache[cacheKey] = &searchCacheEntry{results: results}
	c.cacheMu.Unlock()

	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
