// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"google.golang.org/genai"

	"github.com/pdiddy/report-drafter/internal/httputil"
)

// ErrCredential reports a missing, invalid or unauthorised API key. It is
// never masked by a fallback: the user has to fix their configuration.
var ErrCredential = errors.New("API key missing or rejected")

// ErrEmptyResponse reports a reply with no usable text.
var ErrEmptyResponse = errors.New("model returned no text")

// IsCredential reports whether err is a credential failure.
func IsCredential(err error) bool {
	return errors.Is(err, ErrCredential)
}

// classify wraps provider errors that carry an authorisation status so that
// callers can test them with IsCredential.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if isAuthStatus(statusOf(err)) {
		return fmt.Errorf("%s: %w: %w", provider, ErrCredential, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode
	}
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
