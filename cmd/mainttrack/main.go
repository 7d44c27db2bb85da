package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mainttrack/config"
	"mainttrack/feed"
	"mainttrack/messaging"
	"mainttrack/state"
	"mainttrack/store"
	"mainttrack/syncer"
	"mainttrack/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "mainttrack.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Println("mainttrack", Version)
		return
	}

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	// Database (system of record)
	db, err := store.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database open", zap.String("driver", cfg.Database.Driver))

	// Change feed
	feedClient := feed.NewClient(&cfg.Feed, logger)
	if err := feedClient.Connect(); err != nil {
		logger.Fatal("connect change feed", zap.Error(err))
	}
	defer feedClient.Close()
	logger.Info("change feed connected", zap.String("backend", cfg.Feed.Backend))

	// State cache and synchronizers
	cache := state.New()
	coord := syncer.NewCoordinator(cache.Events, logger,
		syncer.NewEquipmentSyncer(db, feedClient, cache, logger),
		syncer.NewStatusSyncer(db, feedClient, cache, logger),
		syncer.NewBreakdownSyncer(db, feedClient, cache, logger),
	)
	coord.Start(context.Background())
	defer coord.Stop()

	// Kafka bridge (optional)
	var kafkaClient *messaging.Client
	if cfg.Messaging.Enabled {
		kafkaClient = messaging.NewClient(&cfg.Messaging, logger)
		if err := kafkaClient.Connect(); err != nil {
			logger.Warn("kafka connect failed, bridge disabled", zap.Error(err))
		} else {
			// Registered before the bridge so the LIFO defers stop the
			// bridge first and close the client after.
			defer kafkaClient.Close()
			bridge := messaging.NewBridge(kafkaClient, cache.Events, cfg.Messaging.StateTopic, logger)
			bridge.Start()
			defer bridge.Stop()
		}
	}

	// Web server
	handlers := www.NewHandlers(cache, db, feedClient, coord, logger)
	handler, stopWeb := www.NewRouter(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info("web server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("web server", zap.Error(err))
		}
	}()

	logger.Info("ready", zap.String("version", Version))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
