package search

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
	"github.com/tripquorum/tripquorum/internal/infra/llm"
)

type LLMProviderConfig struct {
	// Surplus is how many extra suggestions to request so curation can
	// drop a few without starving the voting round.
	Surplus int `yaml:"surplus" mapstructure:"surplus" default:"2" validate:"gte=0"`
}

// LLMProvider proposes options from the model's own knowledge.
// Used as the fallback when web search yields nothing usable.
type LLMProvider struct {
	suggester Suggester
	config    *LLMProviderConfig
}

// NewLLMProvider creates a new LLMProvider.
func NewLLMProvider(suggester Suggester, settings map[string]any) (*LLMProvider, error) {
	if suggester == nil {
		return nil, errors.New("suggester is required")
	}

	var config LLMProviderConfig
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &config); err != nil {
			return nil, errors.Wrap(err, "failed to decode settings")
		}
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return &LLMProvider{
		suggester: suggester,
		config:    &config,
	}, nil
}

// GetCandidates retrieves candidate options from the model.
func (p *LLMProvider) GetCandidates(ctx context.Context, query Query) ([]planning.Option, error) {
	suggestions, err := p.suggester.SuggestOptions(ctx, llm.SuggestRequest{
		Place:       query.Place,
		Category:    query.Category,
		Preferences: query.Preferences,
		Count:       query.Count + p.config.Surplus,
		HotelArea:   query.HotelArea,
		StartDate:   query.StartDate,
		EndDate:     query.EndDate,
	})
	if err != nil {
		return nil, errors.Wrap(err, "option suggestion failed")
	}

	return toOptions(suggestions, query, "llm"), nil
}

// Name returns the provider name.
func (p *LLMProvider) Name() string {
	return "llm"
}

// toOptions converts model suggestions into votable options. A suggestion
// without a location inherits the destination.
func toOptions(suggestions []llm.Suggestion, query Query, providerName string) []planning.Option {
	options := make([]planning.Option, 0, len(suggestions))
	for _, s := range suggestions {
		location := s.Location
		if location == "" {
			location = query.Place
		}
		options = append(options, planning.NewOption(s.Name, query.Category, planning.SourceRecord{
			Provider: providerName,
			Location: location,
			Detail:   s.Detail,
			URL:      s.URL,
			Cuisine:  s.Cuisine,
		}))
	}
	return options
}
