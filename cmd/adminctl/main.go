// Package main provides the admin CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/tripquorum/tripquorum/internal/api/rest"
)

var (
	app    = kingpin.New("adminctl", "tripquorum admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// list command
	listCmd = app.Command("list", "List active planning chats").Alias("ls")

	// reset command
	resetCmd  = app.Command("reset", "Reset a chat to hotel entry")
	resetChat = resetCmd.Arg("chat", "Chat ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Check token
	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := &adminClient{
		base:  strings.TrimRight(*server, "/"),
		token: *token,
		http:  http.DefaultClient,
	}

	// Execute command
	switch command {
	case listCmd.FullCommand():
		listChats(client)
	case resetCmd.FullCommand():
		resetChatSession(client, *resetChat)
	}
}

// adminClient issues requests against the admin API surface.
type adminClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *adminClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(rest.AdminTokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized (check the admin token)")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

func listChats(client *adminClient) {
	var listing struct {
		Chats []rest.ChatSummary `json:"chats"`
		Count int                `json:"count"`
	}
	if err := client.do(http.MethodGet, "/api/v1/admin/chats", &listing); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if listing.Count == 0 {
		fmt.Println("No active chats.")
		return
	}

	fmt.Printf("Chats (%d):\n", listing.Count)
	for _, chat := range listing.Chats {
		hotel := chat.Hotel
		if hotel == "" {
			hotel = "-"
		}
		days := "-"
		if chat.Days > 0 {
			days = fmt.Sprintf("%d", chat.Days)
		}
		fmt.Printf("  - %s\n    Stage: %s | Hotel: %s | Days: %s | Updated: %s\n",
			chat.ChatID, chat.Stage, hotel, days, chat.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func resetChatSession(client *adminClient, chatID string) {
	var resp rest.Response
	path := "/api/v1/admin/chats/" + chatID + "/reset"
	if err := client.do(http.MethodPost, path, &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if resp.Success {
		fmt.Printf("Chat %s reset to hotel entry.\n", chatID)
	} else {
		fmt.Printf("Reset failed [%s]: %s\n", resp.Code, resp.Message)
		os.Exit(1)
	}
}
