package config

import (
	"errors"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Ko-fi direct link code of the product the bridge watches for when
// KOFI_MONITORED_ITEMS is not set.
const defaultMonitoredItem = "82df911f7d"

type Config struct {
	Port string

	DatabaseURL string

	DiscordWebhookURL string

	MonitoredItems []string

	SentryDSN string
}

func New() (*Config, error) {
	var errs *multierror.Error

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		errs = multierror.Append(errs, errors.New("DATABASE_URL environment variable is required"))
	}

	discordWebhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if discordWebhookURL == "" {
		errs = multierror.Append(errs, errors.New("DISCORD_WEBHOOK_URL environment variable is required"))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Config{
		Port:              port,
		DatabaseURL:       dbURL,
		DiscordWebhookURL: discordWebhookURL,
		MonitoredItems:    parseMonitoredItems(os.Getenv("KOFI_MONITORED_ITEMS")),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
	}, nil
}

func parseMonitoredItems(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return []string{defaultMonitoredItem}
	}
	return items
}
