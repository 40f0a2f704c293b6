// Package llm provides the OpenAI-backed language model client used for
// hotel resolution, option suggestion and itinerary narration.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// errEmptyCompletion marks a completion that came back without usable text.
// Callers translate it into the sentinel appropriate for their operation.
var errEmptyCompletion = errors.New("empty completion")

// hotelJSONPattern extracts the JSON object from a completion that wraps it
// in prose or code fences. The hotel payload is flat, nested braces never occur.
var hotelJSONPattern = regexp.MustCompile(`\{[^{}]+\}`)

// Config represents LLM client configuration.
type Config struct {
	APIKey              string
	BaseURL             string
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	Place               string
}

// Client wraps the OpenAI chat completions API.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	maxTokens   int64
	place       string
}

// SuggestRequest describes one option suggestion call.
type SuggestRequest struct {
	Place       string
	Category    planning.Category
	Preferences []string
	Count       int
	HotelArea   string
	StartDate   string
	EndDate     string
}

// ExtractRequest describes one option extraction call over raw search results.
type ExtractRequest struct {
	Place       string
	Category    planning.Category
	Preferences []string
	Count       int
	StartDate   string
	EndDate     string
	ResultsText string
}

// Suggestion is a single venue or activity proposed by the model.
type Suggestion struct {
	Name     string
	Location string
	Detail   string
	Cuisine  string
	URL      string
}

// hotelPayload mirrors the JSON shape the resolver prompt demands.
type hotelPayload struct {
	Name       string `json:"name"`
	Area       string `json:"area"`
	Confidence string `json:"confidence"`
}

// New creates a new LLM client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm API key is required")
	}
	if cfg.Place == "" {
		return nil, errors.New("destination place is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	api := openai.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	maxTokens := cfg.MaxCompletionTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Client{
		api:         api,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		place:       cfg.Place,
	}, nil
}

// ResolveHotel identifies the hotel a participant described in free text.
// A completion that cannot be parsed as JSON degrades to a low-confidence
// match built from the raw input rather than an error.
func (c *Client) ResolveHotel(ctx context.Context, rawText string) (planning.HotelInfo, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return planning.HotelInfo{}, errors.Wrap(planning.ErrHotelNotFound, "empty hotel input")
	}

	content, err := c.complete(ctx, hotelSystemPrompt, c.hotelPrompt(rawText))
	switch {
	case errors.Is(err, errEmptyCompletion):
		return planning.HotelInfo{}, errors.Wrap(planning.ErrHotelNotFound, "hotel resolution returned nothing")
	case err != nil:
		return planning.HotelInfo{}, err
	}

	info := parseHotelContent(rawText, content)
	zlog.Info().Msgf("resolved hotel: name=%s area=%s confidence=%s", info.Name, info.Area, info.Confidence)
	return info, nil
}

// SuggestOptions asks the model for venue suggestions from its own knowledge.
// Used as the fallback source when web search is unavailable.
func (c *Client) SuggestOptions(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	content, err := c.complete(ctx, suggestSystemPrompt, suggestPrompt(req))
	switch {
	case errors.Is(err, errEmptyCompletion):
		zlog.Warn().Msgf("option suggestion returned nothing: category=%s", req.Category)
		return nil, nil
	case err != nil:
		return nil, err
	}

	suggestions := capSuggestions(parseSuggestions(content), req.Count)
	zlog.Debug().Msgf("model suggested %d options: category=%s", len(suggestions), req.Category)
	return suggestions, nil
}

// ExtractOptions turns raw web search results into structured suggestions.
func (c *Client) ExtractOptions(ctx context.Context, req ExtractRequest) ([]Suggestion, error) {
	if strings.TrimSpace(req.ResultsText) == "" {
		return nil, nil
	}

	content, err := c.complete(ctx, extractSystemPrompt, extractPrompt(req))
	switch {
	case errors.Is(err, errEmptyCompletion):
		zlog.Warn().Msgf("option extraction returned nothing: category=%s", req.Category)
		return nil, nil
	case err != nil:
		return nil, err
	}

	suggestions := capSuggestions(parseSuggestions(content), req.Count)
	zlog.Debug().Msgf("model extracted %d options: category=%s", len(suggestions), req.Category)
	return suggestions, nil
}

// NarrateItinerary writes a friendly narrative around a fixed day schedule.
func (c *Client) NarrateItinerary(ctx context.Context, hotel planning.HotelInfo, days []planning.DayPlan) (string, error) {
	content, err := c.complete(ctx, narrateSystemPrompt, c.narratePrompt(hotel, days))
	switch {
	case errors.Is(err, errEmptyCompletion):
		return "", errors.Wrap(planning.ErrGeneration, "narration returned nothing")
	case err != nil:
		return "", err
	}

	zlog.Info().Msgf("generated itinerary narration: days=%d chars=%d", len(days), len(content))
	return content, nil
}

// complete runs one chat completion and returns the trimmed message text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:               c.model,
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", errors.Wrapf(planning.ErrProviderUnavailable, "chat completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyCompletion
	}
	return content, nil
}

const hotelSystemPrompt = "You are a travel assistant that identifies hotels for trip planning. Respond only with valid JSON."

func (c *Client) hotelPrompt(rawText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The traveller is staying in %s and entered: %q\n\n", c.place, rawText)
	b.WriteString("Identify the most likely hotel:\n")
	b.WriteString("1. The official or common hotel name, capitalized properly.\n")
	fmt.Fprintf(&b, "2. The area or neighborhood of %s the hotel is located in.\n", c.place)
	b.WriteString("3. Your confidence: \"high\" if you are certain about both name and area, ")
	b.WriteString("\"medium\" if you recognize the hotel but are unsure about the exact area, ")
	b.WriteString("\"low\" if you are guessing from partial information.\n\n")
	b.WriteString("Respond ONLY with JSON in this exact shape, no other text:\n")
	b.WriteString(`{"name": "Full Hotel Name", "area": "Area Name", "confidence": "high"}`)
	return b.String()
}

const suggestSystemPrompt = "You are a local travel expert. Suggest only real, currently operating places. Respond only in the exact line format requested."

func suggestPrompt(req SuggestRequest) string {
	noun := "things to do, attractions and activities"
	if req.Category == planning.CategoryEatery {
		noun = "restaurants, eateries and cafes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d %s for people visiting %s", req.Count, noun, req.Place)
	if req.StartDate != "" && req.EndDate != "" {
		fmt.Fprintf(&b, " from %s to %s", req.StartDate, req.EndDate)
	}
	b.WriteString(".\n")
	if req.HotelArea != "" && req.HotelArea != "Unknown" {
		fmt.Fprintf(&b, "Prefer places near the %s area.\n", req.HotelArea)
	}
	if len(req.Preferences) > 0 {
		fmt.Fprintf(&b, "Preferences: %s.\n", strings.Join(req.Preferences, ", "))
	}
	b.WriteString("\nFor EACH suggestion output EXACTLY one line, pipe-separated:\n")
	b.WriteString("NAME|LOCATION|DESCRIPTION|CUISINE|URL\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- NAME: short, clear name of the place\n")
	fmt.Fprintf(&b, "- LOCATION: area or neighborhood in %s\n", req.Place)
	b.WriteString("- DESCRIPTION: one sentence, under 100 characters\n")
	b.WriteString("- CUISINE: type of food for eateries, or \"-\" for activities\n")
	b.WriteString("- URL: official website if known, or \"-\"\n\n")
	b.WriteString("Output ONLY the pipe-separated lines, nothing else.")
	return b.String()
}

const extractSystemPrompt = "You are a data extraction assistant. Respond only in the exact line format requested."

func extractPrompt(req ExtractRequest) string {
	noun, itemNoun := "activities", "activity or attraction"
	if req.Category == planning.CategoryEatery {
		noun, itemNoun = "restaurants or cafes", "restaurant or cafe"
	}

	lo := req.Count - 2
	if lo < 1 {
		lo = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are extracting %s for people visiting %s", noun, req.Place)
	if req.StartDate != "" && req.EndDate != "" {
		fmt.Fprintf(&b, " from %s to %s", req.StartDate, req.EndDate)
	}
	b.WriteString(".\n\nHere are search results:\n\n")
	b.WriteString(req.ResultsText)
	if len(req.Preferences) > 0 {
		fmt.Fprintf(&b, "\nPreferences: %s.\n", strings.Join(req.Preferences, ", "))
	}
	fmt.Fprintf(&b, "\nExtract the top %d-%d most relevant %s. For EACH one, output EXACTLY this format (one per line, pipe-separated):\n\n", lo, req.Count, noun)
	b.WriteString("NAME|LOCATION|DESCRIPTION|CUISINE|URL\n\n")
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "- NAME: %s name (short, clear)\n", itemNoun)
	fmt.Fprintf(&b, "- LOCATION: area or neighborhood in %s\n", req.Place)
	b.WriteString("- DESCRIPTION: one sentence, under 100 characters\n")
	b.WriteString("- CUISINE: type of food for eateries, or \"-\" for activities\n")
	b.WriteString("- URL: the source URL\n\n")
	b.WriteString("Output ONLY the pipe-separated lines, nothing else.")
	return b.String()
}

const narrateSystemPrompt = "You are an enthusiastic but practical travel planner. You never change times or venues of a fixed schedule, you only describe it."

func (c *Client) narratePrompt(hotel planning.HotelInfo, days []planning.DayPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a friendly narrative for this fixed %d-day itinerary in %s.\n\n", len(days), c.place)
	fmt.Fprintf(&b, "HOTEL:\n- Name: %s\n- Area: %s\n\n", hotel.Name, hotel.Area)
	b.WriteString("FIXED SCHEDULE (keep every time and venue exactly as given):\n")
	b.WriteString(planning.RenderPlain(days))
	b.WriteString("\nRules:\n")
	b.WriteString("- One short section per day with a \"Day N\" header, no specific dates.\n")
	b.WriteString("- Mention the hotel by name on day 1.\n")
	b.WriteString("- Add practical notes on travel between places where helpful.\n")
	b.WriteString("- Plain text only, no markdown tables. A few emoji are fine.\n")
	b.WriteString("- Keep the whole response under 2800 characters.")
	return b.String()
}

// parseHotelContent extracts the hotel payload from a completion. Anything
// unparseable falls back to the title-cased raw input at low confidence so
// the participant can still confirm or reject the match.
func parseHotelContent(rawInput, content string) planning.HotelInfo {
	payloadText := content
	if m := hotelJSONPattern.FindString(content); m != "" {
		payloadText = m
	}

	var payload hotelPayload
	if err := json.Unmarshal([]byte(payloadText), &payload); err != nil || payload.Name == "" {
		zlog.Warn().Msgf("hotel payload was not valid JSON, falling back to raw input: input=%s", rawInput)
		return planning.HotelInfo{
			RawInput:   rawInput,
			Name:       cases.Title(language.English).String(rawInput),
			Area:       "Unknown",
			Confidence: planning.ConfidenceLow,
		}
	}

	info := planning.HotelInfo{
		RawInput:   rawInput,
		Name:       payload.Name,
		Area:       payload.Area,
		Confidence: parseConfidence(payload.Confidence),
	}
	if info.Area == "" {
		info.Area = "Unknown"
	}
	return info
}

func parseConfidence(s string) planning.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(planning.ConfidenceHigh):
		return planning.ConfidenceHigh
	case string(planning.ConfidenceMedium):
		return planning.ConfidenceMedium
	default:
		return planning.ConfidenceLow
	}
}

// parseSuggestions reads pipe-separated suggestion lines, skipping anything
// malformed. Code fences and prose lines fall out naturally.
func parseSuggestions(content string) []Suggestion {
	var suggestions []Suggestion
	for _, line := range strings.Split(content, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`")
		if line == "" || !strings.Contains(line, "|") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 5 {
			continue
		}

		s := Suggestion{
			Name:     strings.TrimSpace(parts[0]),
			Location: strings.TrimSpace(parts[1]),
			Detail:   strings.TrimSpace(parts[2]),
			Cuisine:  strings.TrimSpace(parts[3]),
			URL:      strings.TrimSpace(parts[4]),
		}
		if s.Name == "" {
			continue
		}
		if s.Cuisine == "-" {
			s.Cuisine = ""
		}
		if s.URL == "-" {
			s.URL = ""
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}

func capSuggestions(suggestions []Suggestion, n int) []Suggestion {
	if n > 0 && len(suggestions) > n {
		return suggestions[:n]
	}
	return suggestions
}
