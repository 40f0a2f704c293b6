package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
	"github.com/tripquorum/tripquorum/internal/infra/llm"
	"github.com/tripquorum/tripquorum/internal/infra/tavily"
)

// TavilyClient defines the interface for Tavily operations.
type TavilyClient interface {
	Search(ctx context.Context, query string, maxResults int, searchDepth string) ([]tavily.Result, error)
}

type TavilyProviderConfig struct {
	APIKey       string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	SearchDepth  string `yaml:"search_depth" mapstructure:"search_depth" default:"advanced" validate:"oneof=basic advanced"`
	MaxResults   int    `yaml:"max_results" mapstructure:"max_results" default:"15" validate:"gte=1,lte=20"`
	SnippetLimit int    `yaml:"snippet_limit" mapstructure:"snippet_limit" default:"600" validate:"gte=100"`
}

// TavilyProvider discovers options through web search plus model extraction.
// Tavily finds current pages, the model turns them into structured options.
type TavilyProvider struct {
	tavily    TavilyClient
	extractor Extractor
	config    *TavilyProviderConfig
}

// NewTavilyProvider creates a new TavilyProvider.
func NewTavilyProvider(extractor Extractor, settings map[string]any) (*TavilyProvider, error) {
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var config TavilyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	tavilyClient, err := tavily.New(tavily.Config{APIKey: config.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tavily client")
	}

	return &TavilyProvider{
		tavily:    tavilyClient,
		extractor: extractor,
		config:    &config,
	}, nil
}

// GetCandidates retrieves candidate options by searching the web and
// extracting structured options from the results.
func (p *TavilyProvider) GetCandidates(ctx context.Context, query Query) ([]planning.Option, error) {
	results, err := p.tavily.Search(ctx, buildSearchQuery(query), p.config.MaxResults, p.config.SearchDepth)
	if err != nil {
		return nil, errors.Wrap(err, "tavily search failed")
	}
	if len(results) == 0 {
		zlog.Warn().Msgf("tavily returned no results: category=%s place=%s", query.Category, query.Place)
		return []planning.Option{}, nil
	}

	suggestions, err := p.extractor.ExtractOptions(ctx, llm.ExtractRequest{
		Place:       query.Place,
		Category:    query.Category,
		Preferences: query.Preferences,
		Count:       query.Count,
		StartDate:   query.StartDate,
		EndDate:     query.EndDate,
		ResultsText: p.formatResults(results),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract options from search results")
	}

	return toOptions(suggestions, query, "tavily"), nil
}

// Name returns the provider name.
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// buildSearchQuery builds a category-specific web query. The hotel area
// only matters for eateries; activities range over the whole destination.
func buildSearchQuery(query Query) string {
	var b strings.Builder
	switch query.Category {
	case planning.CategoryEatery:
		fmt.Fprintf(&b, "dining options in %s", query.Place)
		if query.HotelArea != "" && query.HotelArea != "Unknown" {
			fmt.Fprintf(&b, " near %s", query.HotelArea)
		}
		b.WriteString(" restaurants, eateries and cafes")
	default:
		fmt.Fprintf(&b, "events, activities and things to do in %s", query.Place)
		if query.StartDate != "" && query.EndDate != "" {
			fmt.Fprintf(&b, " from %s to %s", query.StartDate, query.EndDate)
		}
	}
	for _, pref := range query.Preferences {
		b.WriteString(" ")
		b.WriteString(pref)
	}
	return b.String()
}

// formatResults renders search results as the text block the extraction
// prompt expects. Long snippets are cut to keep the prompt bounded.
func (p *TavilyProvider) formatResults(results []tavily.Result) string {
	var b strings.Builder
	for _, r := range results {
		snippet := strings.TrimSpace(r.Content)
		if runes := []rune(snippet); len(runes) > p.config.SnippetLimit {
			snippet = strings.TrimSpace(string(runes[:p.config.SnippetLimit])) + "..."
		}
		fmt.Fprintf(&b, "Title: %s\nURL: %s\nContent: %s\n\n", r.Title, r.URL, snippet)
	}
	return b.String()
}
