package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"draftbot/internal/api"
	"draftbot/internal/audit"
	"draftbot/internal/config"
	"draftbot/internal/content"
	"draftbot/internal/market"
	"draftbot/internal/notify"
	"draftbot/internal/publisher"
	"draftbot/internal/render"
	"draftbot/internal/scheduler"
	"draftbot/internal/service"
	"draftbot/internal/source"
	"draftbot/internal/source/mailbox"
	"draftbot/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	rabbitMQ, err := publisher.NewRabbitMQ(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	facebook, err := publisher.NewFacebook(cfg.Facebook, logger)
	if err != nil {
		logger.Error("failed to build facebook publisher", "error", err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	if err := facebook.ValidateCredentials(startupCtx); err != nil {
		logger.Warn("facebook credential check failed", "error", err)
	}
	cancelStartup()

	draftStore := postgres.NewDraftStore(db)
	historyStore := postgres.NewMarketHistoryStore(db)
	txManager := postgres.NewTransactionManager(db)

	var feeds []source.Feed
	for _, sourceCfg := range cfg.Sources {
		switch sourceCfg.Type {
		case "html":
			feeds = append(feeds, source.NewWebPage(sourceCfg, cfg.Pipeline.SourceTimeout, logger))
		default:
			feeds = append(feeds, source.NewRSSFeed(sourceCfg, logger))
		}
	}
	aggregator := source.NewAggregator(feeds, cfg.Pipeline.SourceTimeout, logger)

	drafts := service.NewDraftService(service.Deps{
		Rules:      cfg.Rules,
		Composer:   content.NewComposer(cfg.Community.Name, cfg.Community.SignOff, cfg.Rules),
		Candidates: aggregator,
		MLS:        mailbox.New(cfg.Mailbox, logger),
		Drafts:     draftStore,
		History:    historyStore,
		TxManager:  txManager,
		Publisher:  facebook,
		Notifier:   notify.NewTwilio(cfg.Twilio, logger),
		Audit:      audit.NewSheets(cfg.Sheets, logger),
		Renderer:   render.NewClient(cfg.Render, logger),
		MarketData: market.NewRedfin(cfg.Redfin, logger),
		Events:     rabbitMQ,
		Logger:     logger,
		Config:     cfg.Pipeline,
		Community:  cfg.Community.Name,
		Location:   cfg.Scheduler.Location(),
	})

	sched, err := scheduler.New(drafts, cfg.Scheduler, logger)
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(drafts, cfg.Twilio.ApproverPhone, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: server.Handler(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting draftbot",
		"community", cfg.Community.Name,
		"feeds", len(feeds),
		"daily_at", cfg.Scheduler.DailyAt,
		"weekly_day", cfg.Scheduler.WeeklyDay,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
