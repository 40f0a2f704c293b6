package curate

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// BlocklistConfig represents the configuration for BlocklistFilter.
type BlocklistConfig struct {
	Terms []string `yaml:"terms" mapstructure:"terms" validate:"required,min=1,dive,min=2"`
}

// BlocklistFilter drops options whose label or detail contains a
// configured term. Useful for weeding out listicle titles and venues the
// group already ruled out.
type BlocklistFilter struct {
	config *BlocklistConfig
}

// NewBlocklistFilter creates a new blocklist filter.
func NewBlocklistFilter() *BlocklistFilter {
	return &BlocklistFilter{}
}

func (f *BlocklistFilter) Name() string {
	return "blocklist_filter"
}

func (f *BlocklistFilter) Description() string {
	return "Drops options whose label or detail contains a blocklisted term"
}

func (f *BlocklistFilter) ValidateConfig(settings map[string]any) error {
	var config BlocklistConfig

	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Info().Msgf("blocklist filter config: %+v", config)
	return nil
}

// Apply drops options matching any blocklisted term, case-insensitive.
func (f *BlocklistFilter) Apply(options []planning.Option) []planning.Option {
	// If config is not set, accept all options
	if f.config == nil {
		return options
	}

	result := make([]planning.Option, 0, len(options))
	for _, opt := range options {
		if f.blocked(opt) {
			continue
		}
		result = append(result, opt)
	}
	return result
}

func (f *BlocklistFilter) blocked(opt planning.Option) bool {
	haystack := strings.ToLower(opt.Label + " " + opt.Source.Detail)
	for _, term := range f.config.Terms {
		if strings.Contains(haystack, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func init() {
	Register("blocklist_filter", func() Filter {
		return &BlocklistFilter{}
	})
}
