package search

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/app/curate"
	"github.com/tripquorum/tripquorum/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
// Curation filters apply to every provider's output before the chain
// decides whether to fall through to the next one.
func NewChainFromConfig(cfg *config.Config, model ModelClient) (*Chain, error) {
	if len(cfg.Search.Providers) == 0 {
		return nil, errors.New("no search providers configured")
	}

	curator, err := curate.NewChainFromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build curation chain")
	}

	var providers []ProviderWithMetadata

	for i, pcfg := range cfg.Search.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating search provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "tavily":
			provider, err = NewTavilyProvider(model, pcfg.Settings)

		case "llm":
			provider, err = NewLLMProvider(model, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered search provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewChain(providers, curator), nil
}
