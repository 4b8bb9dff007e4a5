// Command ragchat is a terminal client for a retrieval-augmented chat backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/gateway"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := gateway.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	err := cli.Execute(ctx, buildServices)
	_ = logger.Close()
	if err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

// buildServices wires the gateway, stores and core services.
func buildServices(opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("settings: %w", err)
	}
	if err := settingsService.Validate(settings); err != nil {
		logger.Warn("Invalid settings in %s: %v", settingsService.Path(), err)
	}

	baseURL := gateway.ResolveBaseURL(opts.APIURL, settings.API.URL)
	logger.Debug("Using backend %s", baseURL)

	client := gateway.NewClient(gateway.Config{
		BaseURL:    baseURL,
		Timeout:    time.Duration(settings.API.TimeoutSeconds) * time.Second,
		MaxRetries: settings.API.MaxRetries,
		RateLimit:  settings.API.RateLimit,
	})

	cleanup := func() {}
	var archive driven.TranscriptArchive = memory.NewTranscriptArchive()
	if settings.Archive.Enabled {
		store, err := sqlite.NewStore("")
		if err != nil {
			logger.Warn("Transcript archive unavailable, keeping history in memory: %v", err)
		} else {
			archive = store.TranscriptArchive()
			cleanup = func() {
				if err := store.Close(); err != nil {
					logger.Warn("Closing transcript archive: %v", err)
				}
			}
		}
	}

	corpus := services.NewCorpusService(client)
	return &cli.Services{
		Corpus:       corpus,
		Orchestrator: services.NewDocumentOrchestrator(client, corpus),
		Chat:         services.NewChatSession(client, corpus, archive, settings.SessionConfig()),
		Settings:     settingsService,
		History:      services.NewHistoryService(archive),
	}, cleanup, nil
}
