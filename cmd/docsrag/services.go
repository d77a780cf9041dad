package main

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/docsrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsrag/internal/adapters/driven/fetcher/proxy"
	"github.com/custodia-labs/docsrag/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/docsrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsrag/internal/config"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/core/services"
	"github.com/custodia-labs/docsrag/internal/logger"
	"github.com/custodia-labs/docsrag/internal/normalisers/html"
	"github.com/custodia-labs/docsrag/internal/postprocessors/chunker"
)

// buildServices wires adapters and services for one data directory.
func buildServices(home string) (*cli.Services, error) {
	logger.Section("bootstrap")

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settings := config.FromStore(configStore, home)
	logger.Debug("home: %s", home)

	prompts, err := file.NewPromptStore(settings.PromptDir())
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	var kv driven.KVStore
	closeStore := func() error { return nil }
	store, err := sqlite.NewStore(settings.DataDir())
	if err != nil {
		// Like a browser with storage disabled: run, but remember nothing.
		logger.Warn("storage unavailable, nothing will be cached: %v", err)
		kv = memory.NewKVStore()
	} else {
		kv = store
		closeStore = store.Close
	}

	fetcher, err := proxy.New(proxy.Config{
		Endpoint: settings.Proxy.Endpoint,
		Timeout:  settings.Proxy.Timeout,
		Rate:     settings.Proxy.Rate,
	})
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}
	parser := html.New()

	crawler := services.NewCrawler(fetcher, parser, chunker.New())
	cache := services.NewIndexCache(kv, settings.Cache.MaxAge)
	bus := services.NewStatusBus()
	docs := services.NewDocsService(crawler, cache, services.WithStatusBus(bus))

	llm, err := gemini.NewLLMService(gemini.Config{
		BaseURL: settings.LLM.BaseURL,
		Model:   settings.LLM.Model,
	})
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}

	chatCfg := services.DefaultChatConfig()
	chatCfg.DefaultAPIKey = settings.Chat.DefaultAPIKey
	chatCfg.GuestLimit = settings.Chat.GuestLimit
	chatCfg.Temperature = settings.LLM.Temperature
	chatCfg.WebSearch = settings.Chat.WebSearch
	chat := services.NewChatService(docs, llm, kv, prompts, fetcher, parser, chatCfg)

	return &cli.Services{
		Docs:     docs,
		Chat:     chat,
		Config:   configStore,
		Prompts:  prompts,
		Watcher:  configStore,
		Settings: settings,
		Status:   bus,
		Close:    closeStore,
	}, nil
}
