// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/workflow"
)

const maxBodyBytes int64 = 1 << 20

// respondJSON sends payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// respondError sends a structured JSON error.
func respondError(w http.ResponseWriter, status int, err error) {
	response := struct {
		Error     string `json:"error"`
		Status    int    `json:"status"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}{
		Error:     http.StatusText(status),
		Status:    status,
		Message:   http.StatusText(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		response.Message = err.Error()
	}
	respondJSON(w, status, response)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrMissingContext), errors.Is(err, workflow.ErrNoItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrAccountInactive):
		return http.StatusForbidden
	case errors.Is(err, store.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// decodeJSONBody reads a JSON request body into dst. An empty body is
// accepted when allowEOF is set.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, allowEOF bool) (int, error) {
	if r.Body == nil {
		if allowEOF {
			return 0, nil
		}
		return http.StatusBadRequest, errors.New("request body required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if allowEOF && errors.Is(err, io.EOF) {
			return 0, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body too large (max %d bytes)", maxBodyBytes)
		}
		return http.StatusBadRequest, err
	}
	return 0, nil
}
