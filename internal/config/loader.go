package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// Loader handles configuration loading and parsing.
type Loader struct {
	envPattern *regexp.Regexp
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPattern: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`),
	}
}

// Load reads and parses a configuration file. An empty path yields the
// built-in defaults.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.Parse(data)
}

// Parse parses configuration from YAML bytes. Missing sections fall back
// to defaults; an empty routes map falls back to the built-in table.
func (l *Loader) Parse(data []byte) (*Config, error) {
	expanded := l.expandEnvVars(string(data))

	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultConfig().Routes
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = append([]string(nil), DefaultAllowedHeaders...)
	}

	if err := l.validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
func (l *Loader) expandEnvVars(input string) string {
	return l.envPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match // keep original if env var not set
	})
}

// headerTokenPattern matches a valid HTTP header field name (RFC 7230 token).
var headerTokenPattern = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// validate checks configuration for errors.
func (l *Loader) validate(cfg *Config) error {
	if cfg.Listen.Address == "" {
		return fmt.Errorf("listen address is required")
	}

	if cfg.Proxy.ConnectTimeout < 0 || cfg.Proxy.RequestTimeout < 0 {
		return fmt.Errorf("proxy timeouts must not be negative")
	}

	for prefix, target := range cfg.Routes {
		if prefix == "" {
			return fmt.Errorf("route prefix must not be empty")
		}
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("route prefix %q must start with /", prefix)
		}
		if prefix != "/" && strings.HasSuffix(prefix, "/") {
			return fmt.Errorf("route prefix %q must not end with /", prefix)
		}

		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("route %s: invalid target URL %q: %w", prefix, target, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("route %s: target URL %q must be absolute http(s)", prefix, target)
		}
		if u.Host == "" {
			return fmt.Errorf("route %s: target URL %q has no host", prefix, target)
		}
	}

	seen := make(map[string]bool, len(cfg.AllowedHeaders))
	for _, name := range cfg.AllowedHeaders {
		if !headerTokenPattern.MatchString(name) {
			return fmt.Errorf("allowed header %q is not a valid header name", name)
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			return fmt.Errorf("duplicate allowed header %q", name)
		}
		seen[lower] = true
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	return nil
}
