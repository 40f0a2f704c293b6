package curate

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/infra/config"
)

// chainOrder fixes the application order: dedupe first so later filters
// see one entry per venue.
var chainOrder = []string{
	"duplicate_label_filter",
	"blocklist_filter",
	"label_length_filter",
}

// NewChainFromConfig creates a curation chain from configuration.
// An enabled filter with an invalid configuration fails chain creation;
// curation misconfiguration should stop startup, not silently pass junk
// options to vote pools.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	for name := range cfg.Filters {
		if _, ok := registry[name]; !ok {
			return nil, errors.Newf("unknown curation filter: %s", name)
		}
	}

	chain := NewChain()
	for _, name := range chainOrder {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f := registry[name]()
		if err := f.ValidateConfig(cfg.GetFilterSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "failed to validate filter config (%s)", name)
		}
		chain.Add(f)
		zlog.Info().Msgf("registered curation filter: name=%s", name)
	}
	return chain, nil
}
