package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mentionbot/internal/cache"
	"mentionbot/internal/channel"
	"mentionbot/internal/config"
	"mentionbot/internal/metrics"
	"mentionbot/internal/pipeline"
	"mentionbot/internal/provider"
	"mentionbot/internal/token"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot's HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("cannot load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := newLevelLogger(cfg.General.LogLevel)

	key, err := cfg.EncryptionKey()
	if err != nil {
		log.Error("invalid encryption key", "err", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()

	store, err := token.NewStore(token.StoreConfig{
		Dir:       cfg.Storage.Dir,
		Key:       key,
		Logger:    log,
		Collector: collector,
	})
	if err != nil {
		log.Error("cannot open token store", "err", err)
		os.Exit(1)
	}

	ai, err := provider.New(cfg.Provider, cfg.General.BotName, log)
	if err != nil {
		log.Error("cannot build provider", "err", err)
		os.Exit(1)
	}

	conversations := cache.New(cfg.Cache.MaxConversations, cfg.Cache.MaxMessages)
	defaultClient := channel.NewClient(cfg.Slack.BotToken)
	resolver := channel.NewStoreResolver(store, defaultClient, log)

	pipe := pipeline.New(pipeline.Config{
		Resolver:     resolver,
		Fallback:     defaultClient,
		Store:        conversations,
		AI:           ai,
		Logger:       log,
		Platform:     "slack",
		HistoryLimit: cfg.Cache.HistoryLimit,
		Collector:    collector,
	})

	server := channel.NewServer(channel.ServerConfig{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		Events: channel.NewEventsHandler(cfg.Slack.SigningSecret, pipe, log),
		OAuth: channel.NewOAuthHandler(channel.OAuthConfig{
			Store:        store,
			ClientID:     cfg.Slack.ClientID,
			ClientSecret: cfg.Slack.ClientSecret,
			RedirectURI:  cfg.Slack.RedirectURI,
			AppID:        cfg.Slack.AppID,
			Logger:       log,
		}),
		Collector: collector,
		Logger:    log,
	})

	log.Info("mentionbot starting",
		"version", version,
		"provider", ai.Name(),
		"bot_name", cfg.General.BotName,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}
