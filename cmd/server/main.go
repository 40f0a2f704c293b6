// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tripquorum/tripquorum/internal/api/rest"
	"github.com/tripquorum/tripquorum/internal/app/curate"
	"github.com/tripquorum/tripquorum/internal/app/notification"
	"github.com/tripquorum/tripquorum/internal/app/search"
	"github.com/tripquorum/tripquorum/internal/app/session"
	"github.com/tripquorum/tripquorum/internal/infra/config"
	"github.com/tripquorum/tripquorum/internal/infra/llm"
	"github.com/tripquorum/tripquorum/internal/infra/logger"
)

var (
	app        = kingpin.New("tripquorum-server", "tripquorum trip planning server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	listenAddr = app.Flag("addr", "Listen address override (e.g. :9090)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available curation filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.Server.Addr = *listenAddr
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {

	// Create LLM client (hotel resolution and itinerary narration)
	llmClient, err := llm.New(llm.Config{
		APIKey:              cfg.LLM.APIKey,
		BaseURL:             cfg.LLM.BaseURL,
		Model:               cfg.LLM.Model,
		Temperature:         cfg.LLM.Temperature,
		MaxCompletionTokens: int64(cfg.LLM.MaxCompletionTokens),
		Place:               cfg.Trip.Place,
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	// Create search provider chain (validates curation filter config)
	searchChain, err := search.NewChainFromConfig(cfg, llmClient)
	if err != nil {
		return fmt.Errorf("failed to create search chain: %w", err)
	}

	// Create planning engine
	engine := session.NewEngine(cfg, llmClient, searchChain, llmClient)

	// Log every broadcast event for operational visibility
	engine.Notifier().Subscribe("", notification.StreamFunc(func(ev notification.Event) error {
		zlog.Debug().Msgf("event: chat_id=%s type=%s stage=%s sequence_no=%d", ev.ChatID, ev.Type, ev.Stage, ev.SequenceNo)
		return nil
	}))

	// Create HTTP router
	router := rest.NewRouter(cfg, engine)

	// Determine server address
	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s place=%s", serverAddr, cfg.Trip.Place)
		// Signal that we're about to start listening
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Drop subscribers first so event streams terminate
	engine.Notifier().Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printFilters prints available curation filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, factory := range curate.GetRegistered() {
		f := factory()
		fmt.Printf("  %-30s - %s\n", f.Name(), f.Description())
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
