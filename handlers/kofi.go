package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"kofi-bridge.app/cloud/internal/logger"
	"kofi-bridge.app/cloud/internal/metrics"
	"kofi-bridge.app/cloud/internal/notify"
	"kofi-bridge.app/cloud/models"
)

// Matches "device id: ABC-123" and variants like "device_id:ABC-123" or
// "DeviceID ABC-123" inside the free-text purchase message.
var deviceIDPattern = regexp.MustCompile(`(?i)device[_\s]?id:?\s*([a-zA-Z0-9-]+)`)

// KofiWebhook handles the purchase callback: parse the embedded JSON
// payload, keep only purchases of monitored items, derive a device id,
// persist, notify. Every benign outcome answers 200 so Ko-fi does not
// re-deliver.
func (s *Server) KofiWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.WebhooksReceived.Inc()

	logger.Info("Ko-fi webhook received", map[string]interface{}{
		"remote_addr": r.RemoteAddr,
		"user_agent":  r.Header.Get("User-Agent"),
	})

	data, err := rawPayload(r)
	if err != nil {
		logger.Error("Webhook data field is not a string", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data == "" {
		logger.Warn("Webhook request carries no data field")
		http.Error(w, "Missing data field", http.StatusBadRequest)
		return
	}

	var event models.KofiEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		// Ko-fi signals a broken payload, not a broken request, so this
		// stays a server-side failure.
		logger.Error("Failed to parse Ko-fi payload", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	itemName := event.ItemCode()
	if !s.monitored(itemName) {
		logger.Info("Purchase is not for a monitored item", map[string]interface{}{
			"item_name":      itemName,
			"transaction_id": event.KofiTransactionID,
		})
		respondReceived(w)
		return
	}

	deviceID := extractDeviceID(&event)

	license := newLicense(&event, itemName, deviceID)
	if !license.HasIdentity() {
		metrics.PurchasesSkipped.Inc()
		logger.Info("Monitored purchase has neither device id nor email, skipping", map[string]interface{}{
			"transaction_id": event.KofiTransactionID,
		})
		respondReceived(w)
		return
	}

	if err := s.persistPurchase(ctx, license); err != nil {
		logger.Error("Failed to persist purchase", map[string]interface{}{
			"error":          err.Error(),
			"transaction_id": license.TransactionID,
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	metrics.PurchasesStored.Inc()

	s.notifyPurchase(ctx, license)

	respondReceived(w)
}

// rawPayload pulls the JSON-string payload out of the request. Ko-fi
// sends form-encoded bodies with a `data` field; JSON bodies with a
// `data` key are accepted too. A JSON body whose `data` key holds
// anything other than a string cannot be parsed as a payload, so it
// comes back as an error rather than as an absent field.
func rawPayload(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&wrapper); err != nil {
			return "", nil
		}
		if len(wrapper.Data) == 0 || string(wrapper.Data) == "null" {
			return "", nil
		}

		var data string
		if err := json.Unmarshal(wrapper.Data, &data); err != nil {
			return "", fmt.Errorf("data field must be a string: %w", err)
		}
		return data, nil
	}
	return r.FormValue("data"), nil
}

// monitored reports whether the item identifier contains any monitored
// code. Matching is a case-sensitive substring test so a monitored code
// still matches when embedded in a longer identifier.
func (s *Server) monitored(itemName string) bool {
	for _, code := range s.MonitoredItems {
		if strings.Contains(itemName, code) {
			return true
		}
	}
	return false
}

// extractDeviceID tries the purchase message first, then the
// originating URL's device_id query parameter. The message wins when
// both carry a value.
func extractDeviceID(event *models.KofiEvent) string {
	if event.Message != "" {
		if m := deviceIDPattern.FindStringSubmatch(event.Message); m != nil {
			return m[1]
		}
	}

	if event.FromURL != "" {
		if u, err := url.Parse(event.FromURL); err == nil {
			return u.Query().Get("device_id")
		}
	}

	return ""
}

func newLicense(event *models.KofiEvent, itemName, deviceID string) *models.License {
	return &models.License{
		ID:            uuid.Must(uuid.NewRandom()).String(),
		TransactionID: event.KofiTransactionID,
		ItemName:      itemName,
		Amount:        string(event.Amount),
		DeviceID:      deviceID,
		Email:         event.Email,
		PurchaseDate:  time.Now(),
	}
}

// persistPurchase runs the two writes in order. They are intentionally
// independent: a failed email upsert leaves the license insert in
// place and is not retried.
func (s *Server) persistPurchase(ctx context.Context, license *models.License) error {
	if err := s.Storage.InsertLicense(ctx, license); err != nil {
		return fmt.Errorf("failed to insert license: %w", err)
	}

	logger.Info("License stored", map[string]interface{}{
		"license_id":     license.ID,
		"transaction_id": license.TransactionID,
		"device_id":      license.DeviceID,
		"email":          license.Email,
	})

	if license.Email == "" {
		return nil
	}

	if err := s.Storage.UpsertCustomerEmail(ctx, license.Email, license.TransactionID, license.PurchaseDate); err != nil {
		return fmt.Errorf("failed to upsert customer email: %w", err)
	}

	logger.Info("Customer email record updated", map[string]interface{}{
		"email":          license.Email,
		"transaction_id": license.TransactionID,
	})

	return nil
}

// notifyPurchase delivers the chat notification. Failure is logged and
// swallowed; it never changes the webhook response.
func (s *Server) notifyPurchase(ctx context.Context, license *models.License) {
	purchase := notify.Purchase{
		Email:         license.Email,
		DeviceID:      license.DeviceID,
		ItemName:      license.ItemName,
		Amount:        license.Amount,
		TransactionID: license.TransactionID,
	}

	if err := s.Notifier.PurchaseCompleted(ctx, purchase); err != nil {
		metrics.NotifyFailures.Inc()
		logger.Error("Failed to send purchase notification", map[string]interface{}{
			"error":          err.Error(),
			"transaction_id": license.TransactionID,
		})
		return
	}

	logger.Info("Purchase notification sent", map[string]interface{}{
		"transaction_id": license.TransactionID,
	})
}

func respondReceived(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Webhook received")); err != nil {
		logger.Error("Failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
