package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHttpServer(t *testing.T) {
	server, _, _ := newTestServer()

	if server == nil {
		t.Fatalf("Expected server to be created, got nil")
	}

	if server.Mux == nil {
		t.Errorf("Expected mux to be initialized")
	}

	if server.Storage == nil {
		t.Errorf("Expected storage to be initialized")
	}

	if server.Notifier == nil {
		t.Errorf("Expected notifier to be initialized")
	}

	if len(server.MonitoredItems) == 0 {
		t.Errorf("Expected monitored items to be configured")
	}
}

func TestServer_HomeEndpoint(t *testing.T) {
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	server.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if body := w.Body.String(); body != "Ko-fi webhook handler is running!" {
		t.Errorf("Unexpected home body: '%s'", body)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", response.Status)
	}

	if response.Version == "" {
		t.Errorf("Expected version to be set")
	}

	if response.Timestamp.IsZero() {
		t.Errorf("Expected timestamp to be set")
	}
}

func TestServer_WebhookRouted(t *testing.T) {
	server, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	server.Mux.ServeHTTP(w, req)

	// No data field reaches the handler, which answers 400: the route
	// itself is wired.
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
