package search

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripquorum/tripquorum/internal/app/curate"
	"github.com/tripquorum/tripquorum/internal/domain/planning"
	"github.com/tripquorum/tripquorum/internal/infra/config"
	"github.com/tripquorum/tripquorum/internal/infra/llm"
	"github.com/tripquorum/tripquorum/internal/infra/tavily"
)

// fakeTavily returns canned search results or an error.
type fakeTavily struct {
	results []tavily.Result
	err     error
	queries []string
}

func (f *fakeTavily) Search(ctx context.Context, query string, maxResults int, searchDepth string) ([]tavily.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeModel answers extraction and suggestion calls with canned suggestions.
type fakeModel struct {
	extracted    []llm.Suggestion
	extractErr   error
	suggested    []llm.Suggestion
	suggestErr   error
	lastExtract  llm.ExtractRequest
	lastSuggest  llm.SuggestRequest
	suggestCalls int
}

func (f *fakeModel) ExtractOptions(ctx context.Context, req llm.ExtractRequest) ([]llm.Suggestion, error) {
	f.lastExtract = req
	return f.extracted, f.extractErr
}

func (f *fakeModel) SuggestOptions(ctx context.Context, req llm.SuggestRequest) ([]llm.Suggestion, error) {
	f.suggestCalls++
	f.lastSuggest = req
	return f.suggested, f.suggestErr
}

func testTavilyProvider(t *testing.T, client TavilyClient, extractor Extractor) *TavilyProvider {
	t.Helper()
	provider, err := NewTavilyProvider(extractor, map[string]any{"api_key": "test_key"})
	require.NoError(t, err)
	provider.tavily = client
	return provider
}

func testLLMProvider(t *testing.T, suggester Suggester) *LLMProvider {
	t.Helper()
	provider, err := NewLLMProvider(suggester, nil)
	require.NoError(t, err)
	return provider
}

func activityQuery(count int) Query {
	return Query{
		Place:       "Bintan",
		Category:    planning.CategoryActivity,
		Preferences: []string{"kid-friendly"},
		Count:       count,
		StartDate:   "2026-03-14",
		EndDate:     "2026-03-17",
	}
}

func TestChainFirstProviderWins(t *testing.T) {
	primary := &fakeModel{extracted: []llm.Suggestion{
		{Name: "Treasure Bay Water Park", Location: "Lagoi Bay"},
		{Name: "Mangrove Discovery Tour", Location: "Sebung Village"},
	}}
	fallback := &fakeModel{suggested: []llm.Suggestion{{Name: "Should Not Appear"}}}

	chain := NewChain([]ProviderWithMetadata{
		{Provider: testTavilyProvider(t, &fakeTavily{results: []tavily.Result{{Title: "Things to do", URL: "https://example.com", Content: "..."}}}, primary), DisplayName: "Web Search"},
		{Provider: testLLMProvider(t, fallback), DisplayName: "Model Knowledge"},
	}, nil)

	options, err := chain.SearchOptions(context.Background(), activityQuery(4))
	assert.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Treasure Bay Water Park", options[0].Label)
	assert.Equal(t, "tavily", options[0].Source.Provider)
	assert.Equal(t, 0, fallback.suggestCalls)
}

func TestChainFallsThroughOnProviderError(t *testing.T) {
	primary := &fakeModel{}
	fallback := &fakeModel{suggested: []llm.Suggestion{
		{Name: "Lagoi Bay Beach", Location: "Lagoi Bay"},
	}}

	chain := NewChain([]ProviderWithMetadata{
		{Provider: testTavilyProvider(t, &fakeTavily{err: errors.New("boom")}, primary), DisplayName: "Web Search"},
		{Provider: testLLMProvider(t, fallback), DisplayName: "Model Knowledge"},
	}, nil)

	query := activityQuery(4)
	options, err := chain.SearchOptions(context.Background(), query)
	assert.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "llm", options[0].Source.Provider)

	// Fallback asks for extras so curation can drop a few
	assert.Equal(t, query.Count+2, fallback.lastSuggest.Count)
}

func TestChainFallsThroughOnEmptyCandidates(t *testing.T) {
	primary := &fakeModel{extracted: nil}
	fallback := &fakeModel{suggested: []llm.Suggestion{{Name: "Lagoi Bay Beach"}}}

	chain := NewChain([]ProviderWithMetadata{
		{Provider: testTavilyProvider(t, &fakeTavily{results: []tavily.Result{{Title: "t", URL: "u", Content: "c"}}}, primary), DisplayName: "Web Search"},
		{Provider: testLLMProvider(t, fallback), DisplayName: "Model Knowledge"},
	}, nil)

	options, err := chain.SearchOptions(context.Background(), activityQuery(4))
	assert.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, 1, fallback.suggestCalls)
}

func TestChainCuratesAndTruncates(t *testing.T) {
	suggested := []llm.Suggestion{
		{Name: "Treasure Bay Water Park"},
		{Name: "treasure bay water park"}, // duplicate after normalization
		{Name: "Mangrove Discovery Tour"},
		{Name: "Lagoi Bay Beach"},
		{Name: "Trikora Beach Day"},
	}
	curator := curate.NewChain()
	curator.Add(curate.NewDuplicateLabelFilter())

	chain := NewChain([]ProviderWithMetadata{
		{Provider: testLLMProvider(t, &fakeModel{suggested: suggested}), DisplayName: "Model Knowledge"},
	}, curator)

	options, err := chain.SearchOptions(context.Background(), activityQuery(3))
	assert.NoError(t, err)
	require.Len(t, options, 3)
	assert.Equal(t, "Treasure Bay Water Park", options[0].Label)
	assert.Equal(t, "Mangrove Discovery Tour", options[1].Label)
	assert.Equal(t, "Lagoi Bay Beach", options[2].Label)
}

func TestChainAllProvidersFail(t *testing.T) {
	chain := NewChain([]ProviderWithMetadata{
		{Provider: testTavilyProvider(t, &fakeTavily{err: errors.New("down")}, &fakeModel{}), DisplayName: "Web Search"},
		{Provider: testLLMProvider(t, &fakeModel{suggestErr: errors.New("down too")}), DisplayName: "Model Knowledge"},
	}, nil)

	_, err := chain.SearchOptions(context.Background(), activityQuery(4))
	assert.True(t, errors.Is(err, planning.ErrProviderUnavailable))
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := &config.Config{
		Search: config.SearchConfig{
			Providers: []config.ProviderConfig{
				{Type: "tavily", DisplayName: "Web Search", Settings: map[string]any{"api_key": "test_key"}},
				{Type: "llm", DisplayName: "Model Knowledge"},
			},
		},
	}

	chain, err := NewChainFromConfig(cfg, &fakeModel{})
	assert.NoError(t, err)
	require.Len(t, chain.providers, 2)
	assert.Equal(t, "tavily", chain.providers[0].Provider.Name())
	assert.Equal(t, "llm", chain.providers[1].Provider.Name())
}

func TestNewChainFromConfigUnsupportedType(t *testing.T) {
	cfg := &config.Config{
		Search: config.SearchConfig{
			Providers: []config.ProviderConfig{
				{Type: "pigeon", DisplayName: "Carrier Pigeon"},
			},
		},
	}

	_, err := NewChainFromConfig(cfg, &fakeModel{})
	assert.ErrorContains(t, err, "unsupported provider type")
}
