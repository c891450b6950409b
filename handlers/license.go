package handlers

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"kofi-bridge.app/cloud/internal/logger"
)

type LicenseRequest struct {
	DeviceID string `json:"device_id"`
	Email    string `json:"email"`
}

type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ValidateLicense reports whether a purchase has been recorded for the
// given device id or email. The device id takes precedence, matching
// how purchases are attributed on the way in.
func (s *Server) ValidateLicense(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !s.limiter.Allow(remoteAddr(r)) {
		writeErrorResponse(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	var req LicenseRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Empty body")
		return
	}

	if err := req.validate(); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	if req.DeviceID != "" {
		licenses, err := s.Storage.FindLicensesByDeviceID(ctx, req.DeviceID)
		if err != nil {
			logger.Error("License lookup by device id failed", map[string]interface{}{
				"error":     err.Error(),
				"device_id": req.DeviceID,
			})
			writeErrorResponse(w, http.StatusInternalServerError, "Lookup failed")
			return
		}
		if len(licenses) > 0 {
			respondWithValidation(w, true, "License valid")
			return
		}
	}

	if req.Email != "" {
		licenses, err := s.Storage.FindLicensesByEmail(ctx, req.Email)
		if err != nil {
			logger.Error("License lookup by email failed", map[string]interface{}{
				"error": err.Error(),
				"email": req.Email,
			})
			writeErrorResponse(w, http.StatusInternalServerError, "Lookup failed")
			return
		}
		if len(licenses) > 0 {
			respondWithValidation(w, true, "License valid")
			return
		}
	}

	respondWithValidation(w, false, "License not found")
}

func (lr LicenseRequest) validate() error {
	if lr.DeviceID == "" && lr.Email == "" {
		return fmt.Errorf("device_id or email required")
	}
	return nil
}

func respondWithValidation(w http.ResponseWriter, valid bool, message string) {
	if err := json.NewEncoder(w).Encode(ValidateResponse{
		Valid:   valid,
		Message: message,
	}); err != nil {
		logger.Error("Failed to encode validation response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.Error("Failed to encode error response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
