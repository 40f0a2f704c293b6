package search

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/app/curate"
	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain tries providers in order until one yields usable options.
// Later providers are fallbacks, not supplements; a voting round is
// built from a single source so provenance stays coherent.
type Chain struct {
	providers []ProviderWithMetadata
	curator   *curate.Chain
}

// NewChain creates a new provider chain.
func NewChain(providers []ProviderWithMetadata, curator *curate.Chain) *Chain {
	return &Chain{
		providers: providers,
		curator:   curator,
	}
}

// SearchOptions returns up to query.Count curated options from the first
// provider whose candidates survive curation.
func (c *Chain) SearchOptions(ctx context.Context, query Query) ([]planning.Option, error) {
	for i, pm := range c.providers {
		zlog.Debug().Msgf("trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		candidates, err := pm.Provider.GetCandidates(ctx, query)
		if err != nil {
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		if c.curator != nil {
			candidates = c.curator.Apply(candidates)
		}
		if len(candidates) == 0 {
			zlog.Debug().Msgf("provider returned no usable candidates: provider=%s", pm.DisplayName)
			continue
		}

		if query.Count > 0 && len(candidates) > query.Count {
			candidates = candidates[:query.Count]
		}

		zlog.Info().Msgf("provider returned candidates: provider=%s category=%s count=%d",
			pm.DisplayName, query.Category, len(candidates))
		return candidates, nil
	}

	return nil, errors.Wrapf(planning.ErrProviderUnavailable, "no provider returned %s options", query.Category)
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return "provider_chain"
}
