package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"linksvault/internal/bot"
	"linksvault/internal/cache"
	"linksvault/internal/config"
	"linksvault/internal/links"
	"linksvault/internal/preview"
	"linksvault/internal/scraper"
	"linksvault/internal/storage"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, _ := cfg.Level()
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"badgerdb_path":   cfg.BadgerDBPath,
		"redis":           cfg.RedisURL != "",
		"browser_enabled": cfg.BrowserEnabled,
		"stale_after":     cfg.StaleAfter.String(),
	}).Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Info("Closing database...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()
	go repo.RunGC(ctx, cfg.GCInterval)

	var documents storage.DocumentStore
	if cfg.RedisURL != "" {
		client, err := storage.NewRedisClient(cfg.RedisURL, log)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer client.Close()
		documents = storage.NewRedisDocumentStore(client, log)
	} else {
		log.Warn("REDIS_URL not set, shared previews are kept in memory")
		documents = storage.NewMemoryDocumentStore()
	}

	caches := cache.NewManager(
		cache.NewLocalCache(repo, log),
		cache.NewRemoteCache(documents, log),
		cfg.StaleAfter,
		log,
	)

	// --- Fetchers ---
	client := scraper.NewHTTPClient(cfg.FetchTimeout)
	page := scraper.NewHTMLFetcher(client, log)
	registry, err := scraper.NewOEmbedRegistry()
	if err != nil {
		log.Fatalf("Failed to load oEmbed providers: %v", err)
	}
	modular := scraper.NewModularFetcher(page, log,
		scraper.NewInstagramFetcher(cfg.InstagramEndpoint, client, page, log),
		scraper.NewOEmbedFetcher(registry, client, log),
	)

	var secondary scraper.Fetcher = scraper.NewMicrolinkFetcher(cfg.MicrolinkEndpoint, client, log)
	if cfg.BrowserEnabled {
		secondary = scraper.NewChain(log, secondary, scraper.NewRodFetcher(log))
	}

	// --- Preview pipeline ---
	resolver := preview.NewResolver(modular, secondary, caches, preview.Config{
		Fetch: scraper.Options{
			InstagramToken: cfg.InstagramToken,
			Timeout:        cfg.FetchTimeout,
		},
		RefetchTimeout: cfg.RefetchTimeout,
		RetryDelay:     cfg.RetryDelay,
	}, log)
	dispatcher := preview.NewDispatcher(resolver, caches, cfg.DispatchDebounce, log)

	// --- Bot ---
	botHandler, err := bot.NewHandler(cfg, links.NewService(repo, log), resolver, dispatcher, log)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot handler: %v", err)
	}

	log.Info("Starting LinksVault...")
	go botHandler.Start(ctx)
	log.Info("LinksVault is running. Press Ctrl+C to exit.")

	<-ctx.Done()

	log.Info("Shutting down LinksVault...")
	stop()
	dispatcher.Wait()
	log.Info("LinksVault shut down gracefully.")
}
