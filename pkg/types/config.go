package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the timeout to the
	// remote service.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-drafter/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Provider identifies the generative-text service behind the generation client.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderMock   Provider = "mock"
)

// AIConfig holds settings for the generative-text API.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: gemini, openai, claude, or mock.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the API. When empty the key is
	// looked up in the secrets directory.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ThrottleConfig controls the pacing of calls to the generative-text API.
type ThrottleConfig struct {
	// MinInterval is the minimum spacing between any two external calls
	// (default 12s).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval"`

	// ItemDelay is the unconditional pause before each Deep Dive item after
	// the first (default 20s).
	ItemDelay time.Duration `json:"item_delay" yaml:"item_delay" mapstructure:"item_delay"`

	// StatusInterval is how often the status phrase rotates while waiting
	// (default 2.5s).
	StatusInterval time.Duration `json:"status_interval" yaml:"status_interval" mapstructure:"status_interval"`
}

// Default throttle values.
const (
	DefaultMinInterval    = 12 * time.Second
	DefaultItemDelay      = 20 * time.Second
	DefaultStatusInterval = 2500 * time.Millisecond
)

// WithDefaults returns a copy with zero fields replaced by the defaults.
func (c ThrottleConfig) WithDefaults() ThrottleConfig {
	if c.MinInterval <= 0 {
		c.MinInterval = DefaultMinInterval
	}
	if c.ItemDelay <= 0 {
		c.ItemDelay = DefaultItemDelay
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = DefaultStatusInterval
	}
	return c
}

// DeepDiveConfig holds settings for the measures workflow.
type DeepDiveConfig struct {
	// ItemCount is how many measure labels the producer asks for (default 4).
	ItemCount int `json:"item_count" yaml:"item_count" mapstructure:"item_count"`
}

// StoreConfig holds settings for the document store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database and exports.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// NotificationBacklog is how many notifications are kept per report.
	NotificationBacklog int `json:"notification_backlog" yaml:"notification_backlog" mapstructure:"notification_backlog"`
}

// AppConfig groups every configuration block of the application.
type AppConfig struct {
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Throttle ThrottleConfig `json:"throttle" yaml:"throttle" mapstructure:"throttle"`
	DeepDive DeepDiveConfig `json:"deep_dive" yaml:"deep_dive" mapstructure:"deep_dive"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
}
