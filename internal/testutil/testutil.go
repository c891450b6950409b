package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"kofi-bridge.app/cloud/handlers"
	"kofi-bridge.app/cloud/internal/notify"
	"kofi-bridge.app/cloud/models"
	"kofi-bridge.app/cloud/storage"
)

// TestStorage creates an empty memory storage.
func TestStorage() *storage.MemoryStorage {
	return storage.NewMemoryStorage()
}

// RecordingNotifier implements notify.Notifier and records every
// delivered summary.
type RecordingNotifier struct {
	mu    sync.Mutex
	Calls []notify.Purchase
	Err   error
}

func (n *RecordingNotifier) PurchaseCompleted(ctx context.Context, purchase notify.Purchase) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, purchase)
	return n.Err
}

func (n *RecordingNotifier) CallCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}

// CreateTestLicense creates a license with the given identity fields.
func CreateTestLicense(id, deviceID, email string) models.License {
	return models.License{
		ID:            id,
		TransactionID: "T-" + id,
		ItemName:      "82df911f7d",
		Amount:        "5.00",
		DeviceID:      deviceID,
		Email:         email,
		PurchaseDate:  time.Now(),
	}
}

// KofiPayload builds the JSON string Ko-fi would embed in the webhook's
// data field.
func KofiPayload(t *testing.T, fields map[string]interface{}) string {
	t.Helper()

	payload, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Failed to marshal Ko-fi payload: %v", err)
	}
	return string(payload)
}

// PostWebhook sends a form-encoded webhook request the way Ko-fi does.
func PostWebhook(t *testing.T, server *handlers.Server, payload string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	form.Set("data", payload)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	server.Mux.ServeHTTP(w, req)
	return w
}

// PostValidate sends a license validation request.
func PostValidate(t *testing.T, server *handlers.Server, deviceID, email string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(handlers.LicenseRequest{DeviceID: deviceID, Email: email})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/licenses/validate", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Mux.ServeHTTP(w, req)
	return w
}

// AssertValidateResponse checks the validation response.
func AssertValidateResponse(t *testing.T, w *httptest.ResponseRecorder, expectedValid bool, expectedMessage string) {
	t.Helper()

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response handlers.ValidateResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Valid != expectedValid {
		t.Errorf("Expected valid=%v, got valid=%v", expectedValid, response.Valid)
	}

	if response.Message != expectedMessage {
		t.Errorf("Expected message '%s', got '%s'", expectedMessage, response.Message)
	}
}
