package curate

import (
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// LabelLengthConfig represents the configuration for LabelLengthFilter.
type LabelLengthConfig struct {
	MinChars int `yaml:"min_chars" mapstructure:"min_chars" default:"3" validate:"gte=1"`
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars" validate:"gte=0"`
}

// LabelLengthFilter drops options whose label is too short to be a real
// venue name or too long to fit on a vote button.
type LabelLengthFilter struct {
	config *LabelLengthConfig
}

// NewLabelLengthFilter creates a new label length filter.
func NewLabelLengthFilter() *LabelLengthFilter {
	return &LabelLengthFilter{}
}

func (f *LabelLengthFilter) Name() string {
	return "label_length_filter"
}

func (f *LabelLengthFilter) Description() string {
	return "Drops options with labels outside the configured length range"
}

func (f *LabelLengthFilter) ValidateConfig(settings map[string]any) error {
	var config LabelLengthConfig

	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	// Custom validation: min_chars cannot be greater than max_chars
	if config.MaxChars > 0 && config.MinChars > config.MaxChars {
		return errors.New("min_chars cannot be greater than max_chars")
	}

	f.config = &config
	zlog.Info().Msgf("label length filter config: %+v", config)
	return nil
}

// Apply drops options with labels outside the configured range.
// Lengths count runes, not bytes.
func (f *LabelLengthFilter) Apply(options []planning.Option) []planning.Option {
	// If config is not set, accept all options
	if f.config == nil {
		return options
	}

	result := make([]planning.Option, 0, len(options))
	for _, opt := range options {
		length := utf8.RuneCountInString(opt.Label)
		if length < f.config.MinChars {
			continue
		}
		if f.config.MaxChars > 0 && length > f.config.MaxChars {
			continue
		}
		result = append(result, opt)
	}
	return result
}

func init() {
	Register("label_length_filter", func() Filter {
		return &LabelLengthFilter{}
	})
}
