package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"attendance-bot/config"
	"attendance-bot/internal/api"
	"attendance-bot/internal/attendance"
	"attendance-bot/internal/dispatch"
	"attendance-bot/internal/parse"
	"attendance-bot/internal/slackbot"
	"attendance-bot/internal/store"
	"attendance-bot/internal/timeacct"
)

func main() {
	logger := log.New(os.Stdout, "attendance ", log.LstdFlags)

	configPath := flag.StringP("config", "c", "", "path to the YAML config file (default $CONFIG_PATH or ./config/config.yaml)")
	flag.Parse()

	if *configPath == "" {
		*configPath = os.Getenv("CONFIG_PATH")
	}
	if *configPath == "" {
		*configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", *configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", *configPath)

	if cfg.Slack.Enabled && (cfg.Slack.BotToken == "" || cfg.Slack.AppToken == "") {
		logger.Fatalf("Slack bot and app tokens must be configured (slack.bot_token/slack.app_token or SLACK_BOT_TOKEN/SLACK_APP_TOKEN).")
	}

	zone, err := timeacct.LoadZone(cfg.Attendance.Timezone)
	if err != nil {
		logger.Fatalf("failed to load reporting timezone: %v", err)
	}

	backend, err := store.NewBackend(cfg)
	if err != nil {
		logger.Fatalf("failed to initialize %s ledger backend: %v", cfg.Ledger.Backend, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := store.NewLedger(backend)
	if err := ledger.Load(ctx); err != nil {
		logger.Fatalf("failed to load ledger: %v", err)
	}
	logger.Printf("ledger loaded from %s backend: %d rows", cfg.Ledger.Backend, ledger.Len())

	machine := attendance.NewMachine(ledger, zone)
	classifier := parse.NewClassifier(cfg.Attendance.MatchThreshold)
	dispatcher := dispatch.NewDispatcher(cfg.Attendance.Channel, classifier, machine, cfg.Attendance.QueueSize)
	dispatcher.Start(ctx)

	slackSvc := slackbot.NewService(cfg, dispatcher)
	go slackSvc.Run(ctx)

	var server *http.Server
	if cfg.Server.Enabled {
		handler := api.NewHandler(machine, ledger, dispatcher, cfg.Attendance.ShouldConfirm())
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: api.NewRouter(cfg.Server, handler),
		}

		go func() {
			logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("HTTP server ListenAndServe: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP server Shutdown: %v", err)
		}
	}
	cancel()

	// Every mutation was already written through; this catches up after a failed write.
	if err := ledger.Persist(shutdownCtx); err != nil {
		logger.Printf("final ledger persist failed: %v", err)
	}

	logger.Println("Attendance bot gracefully stopped")
}
