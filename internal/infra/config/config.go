// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Trip      TripConfig              `yaml:"trip"`
	Admin     AdminConfig             `yaml:"admin"`
	Search    SearchConfig            `yaml:"search"`
	Filters   map[string]FilterConfig `yaml:"filters"`
	Itinerary ItineraryConfig         `yaml:"itinerary"`
	LLM       LLMConfig               `yaml:"llm"`
	Messages  MessagesConfig          `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr     string      `yaml:"addr" default:":8080"`
	APIToken string      `yaml:"api_token"` // Empty disables participant auth
	Hooks    HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// TripConfig represents the configured destination. One deployment plans
// trips to one place; the dates and preferences season search queries
// and prompts.
type TripConfig struct {
	Place       string   `yaml:"place" validate:"required"`
	StartDate   string   `yaml:"start_date"` // "2006-01-02", optional
	EndDate     string   `yaml:"end_date"`   // "2006-01-02", optional
	Preferences []string `yaml:"preferences"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// SearchConfig represents option search configuration.
type SearchConfig struct {
	Providers []ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`
}

// ProviderConfig represents a single search provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a curation filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// ItineraryConfig represents itinerary assembly configuration.
type ItineraryConfig struct {
	// ArrivalDay switches day 1 to the arrival template (no activity,
	// late check-in). Pointer so an explicit false survives defaulting.
	ArrivalDay *bool `yaml:"arrival_day" default:"true"`
}

// ArrivalDayEnabled reports whether day 1 uses the arrival template.
func (c ItineraryConfig) ArrivalDayEnabled() bool {
	return c.ArrivalDay == nil || *c.ArrivalDay
}

// LLMConfig represents language model API configuration.
type LLMConfig struct {
	APIKey              string  `yaml:"api_key" validate:"required"`
	BaseURL             string  `yaml:"base_url"` // Empty uses the default API endpoint
	Model               string  `yaml:"model" default:"gpt-4o-mini"`
	Temperature         float64 `yaml:"temperature" default:"0.7" validate:"gte=0,lte=2"`
	MaxCompletionTokens int     `yaml:"max_completion_tokens" default:"2048" validate:"omitempty,gte=256"`
}

// MessagesConfig represents user-facing messages. Empty fields fall back
// to built-in texts.
type MessagesConfig struct {
	Success             string `yaml:"success"`
	DefaultError        string `yaml:"default_error"`
	HotelFound          string `yaml:"hotel_found"`
	HotelNotFound       string `yaml:"hotel_not_found"`
	HotelConfirmed      string `yaml:"hotel_confirmed"`
	HotelRejected       string `yaml:"hotel_rejected"`
	InvalidDays         string `yaml:"invalid_days"`
	ActivityVoting      string `yaml:"activity_voting"`
	FoodVoting          string `yaml:"food_voting"`
	VoteAdded           string `yaml:"vote_added"`
	VoteRemoved         string `yaml:"vote_removed"`
	InvalidOption       string `yaml:"invalid_option"`
	PlanReady           string `yaml:"plan_ready"`
	PlanReadyPlain      string `yaml:"plan_ready_plain"`
	ProviderUnavailable string `yaml:"provider_unavailable"`
	WrongStage          string `yaml:"wrong_stage"`
	AlreadyCompleted    string `yaml:"already_completed"`
	Accepted            string `yaml:"accepted"`
	ResetDone           string `yaml:"reset_done"`
	StaleDiscarded      string `yaml:"stale_discarded"`
	UnknownChat         string `yaml:"unknown_chat"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		for i := range c.Search.Providers {
			if c.Search.Providers[i].Type == "tavily" {
				if c.Search.Providers[i].Settings == nil {
					c.Search.Providers[i].Settings = make(map[string]any)
				}
				c.Search.Providers[i].Settings["api_key"] = v
				break
			}
		}
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return orDefault(c.Messages.Success, "Done.")
	case "hotel_found":
		return orDefault(c.Messages.HotelFound, "Found a hotel match. Is this the one?")
	case "hotel_not_found":
		return orDefault(c.Messages.HotelNotFound, "Could not identify that hotel. Try the full name?")
	case "hotel_confirmed":
		return orDefault(c.Messages.HotelConfirmed, "Hotel locked in. How many days is the trip?")
	case "hotel_rejected":
		return orDefault(c.Messages.HotelRejected, "No problem. Send the hotel name again.")
	case "invalid_days":
		return orDefault(c.Messages.InvalidDays, "Pick a trip length between 1 and 5 days.")
	case "activity_voting":
		return orDefault(c.Messages.ActivityVoting, "Vote for the activities you like. Tap again to remove a vote.")
	case "food_voting":
		return orDefault(c.Messages.FoodVoting, "Activities locked. Now vote for places to eat.")
	case "vote_added":
		return orDefault(c.Messages.VoteAdded, "Vote added.")
	case "vote_removed":
		return orDefault(c.Messages.VoteRemoved, "Vote removed.")
	case "invalid_option":
		return orDefault(c.Messages.InvalidOption, "That option is no longer available.")
	case "plan_ready":
		return orDefault(c.Messages.PlanReady, "Your itinerary is ready. Accept it or regenerate.")
	case "plan_ready_plain":
		return orDefault(c.Messages.PlanReadyPlain, "The narrator is unavailable, so here is the plain schedule. Accept or regenerate.")
	case "provider_unavailable":
		return orDefault(c.Messages.ProviderUnavailable, "A travel service is unavailable right now. Please try again.")
	case "wrong_stage":
		return orDefault(c.Messages.WrongStage, "That action does not fit the current planning step.")
	case "already_completed":
		return orDefault(c.Messages.AlreadyCompleted, "The plan is already accepted. Reset to start over.")
	case "accepted":
		return orDefault(c.Messages.Accepted, "Plan accepted. Have a great trip!")
	case "reset_done":
		return orDefault(c.Messages.ResetDone, "Planning restarted. Send a hotel name to begin.")
	case "stale_discarded":
		return orDefault(c.Messages.StaleDiscarded, "Another update got there first. Check the latest state.")
	case "unknown_chat":
		return orDefault(c.Messages.UnknownChat, "No planning session for this chat.")
	default:
		return orDefault(c.Messages.DefaultError, "Something went wrong. Please try again.")
	}
}

func orDefault(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Validate trip date consistency
	if err := c.validateDateConsistency(); err != nil {
		return err
	}

	return nil
}

// validateDateConsistency checks that trip dates come as a parseable,
// ordered pair or not at all.
func (c *Config) validateDateConsistency() error {
	if (c.Trip.StartDate == "") != (c.Trip.EndDate == "") {
		return errors.New("start_date and end_date must be set together")
	}
	if c.Trip.StartDate == "" {
		return nil
	}

	start, err := time.Parse(time.DateOnly, c.Trip.StartDate)
	if err != nil {
		return errors.Wrap(err, "failed to parse start_date")
	}
	end, err := time.Parse(time.DateOnly, c.Trip.EndDate)
	if err != nil {
		return errors.Wrap(err, "failed to parse end_date")
	}
	if end.Before(start) {
		return errors.Newf("end_date (%s) must not be before start_date (%s)", c.Trip.EndDate, c.Trip.StartDate)
	}
	return nil
}

// IsFilterEnabled checks if a curation filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a curation filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
