// Package config loads the paybridge process configuration from defaults, an
// optional YAML file, and environment variables, in that order of precedence.
// The resulting Config is built once in main and never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPort is used when neither PORT nor the config file sets one.
const DefaultPort = 4242

// Config holds all process-wide settings. Secret values are never logged.
type Config struct {
	Port int `yaml:"port"`

	// StripeSecretKey authenticates calls to the payment processor.
	// The process refuses to start without it.
	StripeSecretKey string `yaml:"stripe_secret_key"`

	// StripeWebhookSecret verifies inbound webhook signatures. Without it
	// every webhook is rejected.
	StripeWebhookSecret string `yaml:"stripe_webhook_secret"`

	// ForwardURL is the downstream automation endpoint. Empty disables
	// forwarding.
	ForwardURL string `yaml:"forward_url"`

	// ForwardSigningSecret signs outbound forwarding payloads. Empty means
	// payloads are delivered unsigned.
	ForwardSigningSecret string `yaml:"forward_signing_secret"`

	// AllowedOrigins is the CORS allow-list. Empty means permissive.
	AllowedOrigins []string `yaml:"allowed_origins"`

	Verbose bool `yaml:"verbose"`
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips the file layer. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := &Config{Port: DefaultPort}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = p
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.StripeSecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		c.StripeWebhookSecret = v
	}
	if v := os.Getenv("FORWARD_URL"); v != "" {
		c.ForwardURL = v
	}
	if v := os.Getenv("FORWARD_SIGNING_SECRET"); v != "" {
		c.ForwardSigningSecret = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = SplitOrigins(v)
	}
	return nil
}

// SplitOrigins parses a comma-separated origin list, trimming whitespace and
// dropping empty entries.
func SplitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports fatal configuration problems. Missing optional settings
// are surfaced through Warnings instead.
func (c *Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Warnings lists non-fatal configuration gaps for the operator. Messages name
// the setting, never its value.
func (c *Config) Warnings() []string {
	var w []string
	if c.StripeWebhookSecret == "" {
		w = append(w, "STRIPE_WEBHOOK_SECRET not set: all webhook events will be rejected")
	}
	if c.ForwardURL == "" {
		w = append(w, "FORWARD_URL not set: verified events will not be forwarded")
	}
	if c.ForwardURL != "" && c.ForwardSigningSecret == "" {
		w = append(w, "FORWARD_SIGNING_SECRET not set: forwarded payloads will be unsigned")
	}
	return w
}
