package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"kofi-bridge.app/cloud/handlers"
	"kofi-bridge.app/cloud/internal/config"
	"kofi-bridge.app/cloud/internal/logger"
	"kofi-bridge.app/cloud/internal/notify"
	"kofi-bridge.app/cloud/storage"
)

func main() {
	if versionBytes, err := os.ReadFile("VERSION"); err == nil {
		handlers.Version = strings.TrimSpace(string(versionBytes))
	}

	godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %s", err)
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
	}

	db, err := storage.NewSQLiteStorage(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("storage: %s", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close storage", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	notifier := notify.NewDiscord(cfg.DiscordWebhookURL)
	server := handlers.NewHttpServer(db, notifier, cfg.MonitoredItems)

	logger.Info("Ko-fi webhook bridge starting", map[string]interface{}{
		"version":         handlers.Version,
		"port":            cfg.Port,
		"monitored_items": cfg.MonitoredItems,
	})

	log.Fatal(http.ListenAndServe(":"+cfg.Port, server.Mux))
}
