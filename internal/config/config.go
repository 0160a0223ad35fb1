package config

import "time"

// Config represents the complete proxy configuration.
type Config struct {
	Listen         ListenConfig      `yaml:"listen"`
	Proxy          ProxyConfig       `yaml:"proxy"`
	Routes         map[string]string `yaml:"routes"`
	AllowedHeaders []string          `yaml:"allowed_headers"`
	Logging        LoggingConfig     `yaml:"logging"`
	Metrics        MetricsConfig     `yaml:"metrics"`
}

// ListenConfig holds the inbound HTTP server settings.
type ListenConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProxyConfig holds the outbound client and body-cap settings.
type ProxyConfig struct {
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	ConnectTimeout      time.Duration `yaml:"connect_timeout"`
	KeepAlive           time.Duration `yaml:"keep_alive"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxBodySizeMB       int           `yaml:"max_body_size_mb"`
}

// MaxBodyBytes returns the inbound body cap in bytes, or 0 for unlimited.
func (p ProxyConfig) MaxBodyBytes() int64 {
	if p.MaxBodySizeMB <= 0 {
		return 0
	}
	return int64(p.MaxBodySizeMB) * 1024 * 1024
}

// LoggingConfig configures the structured logger and access log.
type LoggingConfig struct {
	Level     string          `yaml:"level"`
	AccessLog AccessLogConfig `yaml:"access_log"`
}

// AccessLogConfig configures per-request access logging. When File is set,
// entries go to a size-rotated file instead of the process logger.
type AccessLogConfig struct {
	Enabled    *bool  `yaml:"enabled"` // nil = enabled
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// IsEnabled reports whether access logging is on (default true).
func (a AccessLogConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"` // nil = enabled
}

// IsEnabled reports whether the /metrics endpoint is on (default true).
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// DefaultRoutes is the built-in prefix → upstream base table, used when the
// config file does not provide one.
var DefaultRoutes = map[string]string{
	"/anthropic":   "https://api.anthropic.com",
	"/claude":      "https://api.anthropic.com",
	"/cerebras":    "https://api.cerebras.ai",
	"/cohere":      "https://api.cohere.ai",
	"/discord":     "https://discord.com/api",
	"/fireworks":   "https://api.fireworks.ai",
	"/gemini":      "https://generativelanguage.googleapis.com",
	"/groq":        "https://api.groq.com/openai",
	"/huggingface": "https://api-inference.huggingface.co",
	"/meta":        "https://www.meta.ai/api",
	"/novita":      "https://api.novita.ai",
	"/nvidia":      "https://integrate.api.nvidia.com",
	"/oaipro":      "https://api.oaipro.com",
	"/openai":      "https://api.openai.com",
	"/openrouter":  "https://openrouter.ai/api",
	"/portkey":     "https://api.portkey.ai",
	"/reka":        "https://api.reka.ai",
	"/telegram":    "https://api.telegram.org",
	"/together":    "https://api.together.xyz",
	"/xai":         "https://api.x.ai",
	"/github":      "https://api.github.com",
}

// DefaultAllowedHeaders is the built-in request header allowlist.
var DefaultAllowedHeaders = []string{
	"accept",
	"content-type",
	"authorization",
	"x-goog-api-key",
	"x-api-key",
	"user-agent",
	"cache-control",
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	routes := make(map[string]string, len(DefaultRoutes))
	for prefix, target := range DefaultRoutes {
		routes[prefix] = target
	}

	return &Config{
		Listen: ListenConfig{
			Address:         "0.0.0.0:8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0, // streaming upstreams may respond slowly; proxy timeout governs
			IdleTimeout:     90 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Proxy: ProxyConfig{
			RequestTimeout:      3600 * time.Second,
			ConnectTimeout:      10 * time.Second,
			KeepAlive:           60 * time.Second,
			MaxIdleConnsPerHost: 20,
			MaxBodySizeMB:       10,
		},
		Routes:         routes,
		AllowedHeaders: append([]string(nil), DefaultAllowedHeaders...),
		Logging: LoggingConfig{
			Level: "info",
			AccessLog: AccessLogConfig{
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 30,
			},
		},
	}
}
