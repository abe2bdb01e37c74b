// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// NewClient returns an HTTP client with the configured timeout that sets
// the configured User-Agent on every request.
func NewClient(cfg types.HTTPConfig) *http.Client {
	transport := http.DefaultTransport
	if cfg.UserAgent != "" {
		transport = &userAgentTransport{agent: cfg.UserAgent, base: transport}
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: transport}
}

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}
