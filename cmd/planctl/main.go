// Package main provides the participant CLI entry point for testing.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/tripquorum/tripquorum/internal/api/rest"
)

var (
	app         = kingpin.New("planctl", "tripquorum participant client for testing")
	server      = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token       = app.Flag("token", "API token (or set API_TOKEN env)").Envar("API_TOKEN").String()
	participant = app.Flag("participant", "Participant ID (or set PARTICIPANT_ID env)").Envar("PARTICIPANT_ID").Default("cli").String()

	// hotel command
	hotelCmd  = app.Command("hotel", "Submit a hotel name")
	hotelChat = hotelCmd.Arg("chat", "Chat ID").Required().String()
	hotelText = hotelCmd.Arg("text", "Hotel name as typed").Required().Strings()

	// confirm command
	confirmCmd  = app.Command("confirm", "Confirm the resolved hotel")
	confirmChat = confirmCmd.Arg("chat", "Chat ID").Required().String()

	// reject command
	rejectCmd  = app.Command("reject", "Reject the resolved hotel")
	rejectChat = rejectCmd.Arg("chat", "Chat ID").Required().String()

	// days command
	daysCmd   = app.Command("days", "Set the trip length in days")
	daysChat  = daysCmd.Arg("chat", "Chat ID").Required().String()
	daysCount = daysCmd.Arg("days", "Number of days (1-5)").Required().Int()

	// vote command
	voteCmd    = app.Command("vote", "Toggle a vote on an option")
	voteChat   = voteCmd.Arg("chat", "Chat ID").Required().String()
	voteOption = voteCmd.Arg("option-id", "Option ID (see state)").Required().String()

	// done command
	doneCmd  = app.Command("done", "Close the current voting round")
	doneChat = doneCmd.Arg("chat", "Chat ID").Required().String()

	// regenerate command
	regenerateCmd  = app.Command("regenerate", "Rebuild the itinerary")
	regenerateChat = regenerateCmd.Arg("chat", "Chat ID").Required().String()

	// accept command
	acceptCmd  = app.Command("accept", "Accept the reviewed plan")
	acceptChat = acceptCmd.Arg("chat", "Chat ID").Required().String()

	// reset command
	resetCmd  = app.Command("reset", "Restart planning from hotel entry")
	resetChat = resetCmd.Arg("chat", "Chat ID").Required().String()

	// state command
	stateCmd  = app.Command("state", "Show the current session state")
	stateChat = stateCmd.Arg("chat", "Chat ID").Required().String()

	// options command
	optionsCmd  = app.Command("options", "List votable options with tallies")
	optionsChat = optionsCmd.Arg("chat", "Chat ID").Required().String()

	// watch command
	watchCmd  = app.Command("watch", "Tail session events")
	watchChat = watchCmd.Arg("chat", "Chat ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := &apiClient{
		base:  strings.TrimRight(*server, "/"),
		token: *token,
		http:  http.DefaultClient,
	}

	// Execute command
	switch command {
	case hotelCmd.FullCommand():
		submitHotel(client, *hotelChat, strings.Join(*hotelText, " "))
	case confirmCmd.FullCommand():
		postSimple(client, *confirmChat, "hotel/confirm")
	case rejectCmd.FullCommand():
		postSimple(client, *rejectChat, "hotel/reject")
	case daysCmd.FullCommand():
		setDays(client, *daysChat, *daysCount)
	case voteCmd.FullCommand():
		vote(client, *voteChat, *voteOption)
	case doneCmd.FullCommand():
		postSimple(client, *doneChat, "done")
	case regenerateCmd.FullCommand():
		postSimple(client, *regenerateChat, "regenerate")
	case acceptCmd.FullCommand():
		postSimple(client, *acceptChat, "accept")
	case resetCmd.FullCommand():
		postSimple(client, *resetChat, "reset")
	case stateCmd.FullCommand():
		showState(client, *stateChat)
	case optionsCmd.FullCommand():
		showOptions(client, *optionsChat)
	case watchCmd.FullCommand():
		watch(client, *watchChat)
	}
}

// apiClient is a thin JSON client for the planning API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *apiClient) do(method, path string, payload any) (rest.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return rest.Response{}, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return rest.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return rest.Response{}, err
	}
	defer resp.Body.Close()

	var out rest.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return rest.Response{}, fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

func (c *apiClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func chatPath(chatID, action string) string {
	path := "/api/v1/chats/" + chatID
	if action != "" {
		path += "/" + action
	}
	return path
}

func submitHotel(client *apiClient, chatID, text string) {
	resp, err := client.do(http.MethodPost, chatPath(chatID, "hotel"), map[string]any{
		"participant_id": *participant,
		"text":           text,
	})
	exitOnError(err)
	printOutcome(resp)
	if resp.Success && resp.State != nil && resp.State.Hotel != nil {
		h := resp.State.Hotel
		fmt.Printf("Matched: %s (%s, confidence: %s)\n", h.Name, h.Area, h.Confidence)
	}
}

func setDays(client *apiClient, chatID string, days int) {
	resp, err := client.do(http.MethodPost, chatPath(chatID, "days"), map[string]any{
		"participant_id": *participant,
		"days":           days,
	})
	exitOnError(err)
	printOutcome(resp)
	if resp.Success {
		printState(resp.State)
	}
}

func vote(client *apiClient, chatID, optionID string) {
	resp, err := client.do(http.MethodPost, chatPath(chatID, "votes"), map[string]any{
		"participant_id": *participant,
		"option_id":      optionID,
	})
	exitOnError(err)
	printOutcome(resp)
}

// postSimple issues an intent that needs nothing beyond the participant id.
func postSimple(client *apiClient, chatID, action string) {
	resp, err := client.do(http.MethodPost, chatPath(chatID, action), map[string]any{
		"participant_id": *participant,
	})
	exitOnError(err)
	printOutcome(resp)
	if resp.Success {
		printState(resp.State)
	}
}

func showState(client *apiClient, chatID string) {
	resp, err := client.do(http.MethodGet, chatPath(chatID, ""), nil)
	exitOnError(err)
	if !resp.Success {
		fmt.Printf("Rejected [%s]: %s\n", resp.Code, resp.Message)
		os.Exit(1)
	}
	printState(resp.State)
}

func showOptions(client *apiClient, chatID string) {
	resp, err := client.do(http.MethodGet, chatPath(chatID, ""), nil)
	exitOnError(err)
	if !resp.Success {
		fmt.Printf("Rejected [%s]: %s\n", resp.Code, resp.Message)
		os.Exit(1)
	}
	if resp.State == nil || len(resp.State.Options) == 0 {
		fmt.Println("No open voting round.")
		return
	}
	fmt.Printf("Options (%s):\n", formatStage(resp.State.Stage))
	for _, tally := range resp.State.Options {
		location := tally.Option.Location
		if location != "" {
			location = " - " + location
		}
		fmt.Printf("  [%d] %s%s\n      id: %s\n", tally.Votes, tally.Option.Label, location, tally.Option.ID)
	}
}

func watch(client *apiClient, chatID string) {
	req, err := http.NewRequest(http.MethodGet, client.base+chatPath(chatID, "events"), nil)
	exitOnError(err)
	client.authorize(req)

	resp, err := client.http.Do(req)
	exitOnError(err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("Error: HTTP %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}

	fmt.Println("Watching chat events. Press Ctrl+C to exit.")

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nClosing...")
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev rest.EventView
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			continue
		}
		printEvent(ev)
	}

	if err := scanner.Err(); err != nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printEvent(ev rest.EventView) {
	fmt.Printf("\n[Sequence: %d] === %s ===\n", ev.SequenceNo, strings.ToUpper(ev.Type))
	fmt.Printf("Stage: %s\n", formatStage(ev.Stage))
	if ev.State != nil {
		printState(ev.State)
	}
}

func printOutcome(resp rest.Response) {
	if resp.Success {
		fmt.Printf("Success: %s\n", resp.Message)
	} else {
		fmt.Printf("Rejected [%s]: %s\n", resp.Code, resp.Message)
	}
	if len(resp.Defaults) > 0 {
		fmt.Printf("Auto-selected (no votes): %s\n", strings.Join(resp.Defaults, ", "))
	}
}

func printState(state *rest.StateView) {
	if state == nil {
		return
	}

	fmt.Printf("\n=== CHAT %s ===\n", state.ChatID)
	fmt.Printf("Stage: %s\n", formatStage(state.Stage))
	if state.Hotel != nil {
		fmt.Printf("Hotel: %s (%s, confidence: %s)\n", state.Hotel.Name, state.Hotel.Area, state.Hotel.Confidence)
	}
	if state.Days > 0 {
		fmt.Printf("Days: %d\n", state.Days)
	}

	if len(state.Options) > 0 {
		fmt.Println("\nOptions:")
		for _, tally := range state.Options {
			location := tally.Option.Location
			if location != "" {
				location = " - " + location
			}
			fmt.Printf("  [%d] %s%s\n      id: %s\n", tally.Votes, tally.Option.Label, location, tally.Option.ID)
		}
	}
	if len(state.FrozenActivities) > 0 {
		fmt.Println("\nChosen activities:")
		for _, opt := range state.FrozenActivities {
			fmt.Printf("  - %s\n", opt.Label)
		}
	}
	if len(state.FrozenFood) > 0 {
		fmt.Println("\nChosen places to eat:")
		for _, opt := range state.FrozenFood {
			fmt.Printf("  - %s\n", opt.Label)
		}
	}
	if state.Itinerary != nil {
		fmt.Println("\nItinerary:")
		fmt.Println(state.Itinerary.Text)
	}
	fmt.Println()
}

func formatStage(stage string) string {
	switch stage {
	case "awaiting_hotel":
		return "⏳ Waiting for a hotel name"
	case "confirming_hotel":
		return "❓ Confirming the hotel match"
	case "awaiting_days":
		return "📅 Waiting for the trip length"
	case "voting_activities":
		return "🗳  Voting on activities"
	case "voting_food":
		return "🗳  Voting on places to eat"
	case "generating":
		return "⚙️  Generating the itinerary"
	case "review":
		return "📝 Reviewing the itinerary"
	case "complete":
		return "✅ Plan accepted"
	default:
		return "❓ " + stage
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
