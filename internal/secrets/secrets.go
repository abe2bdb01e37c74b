// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the API key of each generation provider. A key
// comes from the configuration, then from a file in the secrets directory
// named after the provider's key, then from the provider's environment
// variable.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// providerKeys maps a provider to its key file name and environment variable.
var providerKeys = map[types.Provider]struct{ file, env string }{
	types.ProviderGemini: {"gemini-api-key", "GEMINI_API_KEY"},
	types.ProviderOpenAI: {"openai-api-key", "OPENAI_API_KEY"},
	types.ProviderClaude: {"anthropic-api-key", "ANTHROPIC_API_KEY"},
}

// FileName returns the key file of provider, or "" for providers that need
// no key. An empty provider means Gemini.
func FileName(p types.Provider) string {
	return providerKeys[normalize(p)].file
}

// EnvVar returns the environment variable holding the key of provider.
func EnvVar(p types.Provider) string {
	return providerKeys[normalize(p)].env
}

func normalize(p types.Provider) types.Provider {
	if p == "" {
		return types.ProviderGemini
	}
	return p
}

// Keys holds the key files read from a secrets directory.
type Keys struct {
	files     map[string]string
	lookupEnv func(string) (string, bool)
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error. Unreadable files are logged and skipped; empty files are
// ignored.
func Load(dir string, logger *zap.Logger) (*Keys, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	k := &Keys{files: map[string]string{}, lookupEnv: os.LookupEnv}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return k, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("skipping unreadable secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			k.files[name] = value
		}
	}
	return k, nil
}

// Names returns the loaded key file names, sorted.
func (k *Keys) Names() []string {
	if k == nil {
		return nil
	}
	names := make([]string, 0, len(k.files))
	for name := range k.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Key returns the key of provider from its file or, failing that, its
// environment variable. Providers without a key return "".
func (k *Keys) Key(p types.Provider) string {
	pk, ok := providerKeys[normalize(p)]
	if !ok {
		return ""
	}
	if k != nil {
		if v := k.files[pk.file]; v != "" {
			return v
		}
	}
	lookup := os.LookupEnv
	if k != nil && k.lookupEnv != nil {
		lookup = k.lookupEnv
	}
	if v, ok := lookup(pk.env); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Resolve returns configured when it is set and Key(p) otherwise.
func (k *Keys) Resolve(p types.Provider, configured string) string {
	if configured != "" {
		return configured
	}
	return k.Key(p)
}
