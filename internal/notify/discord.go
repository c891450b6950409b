package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Purchase is the summary forwarded to the chat channel after a
// monitored purchase has been persisted.
type Purchase struct {
	Email         string
	DeviceID      string
	ItemName      string
	Amount        string
	TransactionID string
}

type Notifier interface {
	PurchaseCompleted(ctx context.Context, purchase Purchase) error
}

// Discord posts embed-style messages to a Discord webhook URL.
// Delivery is a single attempt; callers decide whether a failure
// matters.
type Discord struct {
	WebhookURL string
	Client     *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		WebhookURL: webhookURL,
		Client:     http.DefaultClient,
	}
}

type webhookMessage struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
	Footer    embedFooter  `json:"footer"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

func (d *Discord) PurchaseCompleted(ctx context.Context, purchase Purchase) error {
	fields := []embedField{
		{Name: "Item", Value: orUnknown(purchase.ItemName), Inline: true},
		{Name: "Amount", Value: orZero(purchase.Amount), Inline: true},
		{Name: "Transaction ID", Value: orUnknown(purchase.TransactionID)},
	}

	if purchase.Email != "" {
		fields = append(fields, embedField{Name: "Email", Value: purchase.Email})
	}

	if purchase.DeviceID != "" {
		fields = append(fields, embedField{Name: "Device ID", Value: purchase.DeviceID})
	}

	message := webhookMessage{
		Embeds: []embed{{
			Title:     "🎉 New purchase received!",
			Color:     0x00ff00,
			Fields:    fields,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Footer:    embedFooter{Text: "Ko-fi Webhook"},
		}},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}

	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
