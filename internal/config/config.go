// ABOUTME: Configuration loading and parsing for event-relay
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Transport modes
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config represents the complete event-relay configuration
type Config struct {
	Client    BotConfig       `yaml:"client" toml:"client"`
	Service   BotConfig       `yaml:"service" toml:"service"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Bridge    BridgeConfig    `yaml:"bridge" toml:"bridge"`
	Relay     RelayConfig     `yaml:"relay" toml:"relay"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// BotConfig holds one bot's credentials
type BotConfig struct {
	Token string `yaml:"token" toml:"token"`

	// UploadChatID is a chat this bot can post to; re-uploaded attachments
	// are parked there to obtain file ids valid for this bot
	UploadChatID int64 `yaml:"upload_chat_id" toml:"upload_chat_id"`

	// APIEndpoint overrides the Bot API URL template (self-hosted Bot API server)
	APIEndpoint string `yaml:"api_endpoint" toml:"api_endpoint"`

	Debug bool `yaml:"debug" toml:"debug"`
}

// TransportConfig selects how updates arrive
type TransportConfig struct {
	Mode string `yaml:"mode" toml:"mode"` // polling (default) or webhook

	PollTimeout    time.Duration `yaml:"-" toml:"-"`
	PollTimeoutRaw string        `yaml:"poll_timeout" toml:"poll_timeout"`

	// HTTPAddr serves /healthz, and /webhook/{endpoint} in webhook mode
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`

	// WebhookBaseURL is the public URL Telegram posts to, without the path
	WebhookBaseURL string `yaml:"webhook_base_url" toml:"webhook_base_url"`
}

// DatabaseConfig holds item database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // "sqlite" (default) or "sqlite3"
	Path   string `yaml:"path" toml:"path"`
}

// BridgeConfig holds attachment bridge configuration
type BridgeConfig struct {
	StagingDir string `yaml:"staging_dir" toml:"staging_dir"`
}

// RelayConfig holds relay behaviour settings
type RelayConfig struct {
	// ClientBotURL is the deep link prefix of the client bot,
	// e.g. "https://t.me/EventsBot?start="
	ClientBotURL string `yaml:"client_bot_url" toml:"client_bot_url"`

	DedupeTTL    time.Duration `yaml:"-" toml:"-"`
	DedupeTTLRaw string        `yaml:"dedupe_ttl" toml:"dedupe_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration content; ext selects the format (".toml" or YAML otherwise).
func Parse(ext string, data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(ext, ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Transport.Mode == "" {
		cfg.Transport.Mode = ModePolling
	}
	if cfg.Transport.PollTimeoutRaw == "" {
		cfg.Transport.PollTimeoutRaw = "60s"
	}
	if cfg.Relay.DedupeTTLRaw == "" {
		cfg.Relay.DedupeTTLRaw = "10m"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Client.Token == "" {
		return fmt.Errorf("client.token is required")
	}
	if c.Service.Token == "" {
		return fmt.Errorf("service.token is required")
	}
	if c.Client.Token == c.Service.Token {
		return fmt.Errorf("client.token and service.token must belong to different bots")
	}
	if c.Client.UploadChatID == 0 {
		return fmt.Errorf("client.upload_chat_id is required")
	}
	if c.Service.UploadChatID == 0 {
		return fmt.Errorf("service.upload_chat_id is required")
	}

	switch c.Transport.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Transport.HTTPAddr == "" {
			return fmt.Errorf("transport.http_addr is required in webhook mode")
		}
		u, err := url.Parse(c.Transport.WebhookBaseURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("transport.webhook_base_url must be an https URL in webhook mode")
		}
	default:
		return fmt.Errorf("transport.mode must be %q or %q", ModePolling, ModeWebhook)
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be sqlite or sqlite3")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Relay.ClientBotURL != "" {
		if _, err := url.Parse(c.Relay.ClientBotURL); err != nil {
			return fmt.Errorf("relay.client_bot_url is not a valid URL: %w", err)
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	cfg.Transport.PollTimeout, err = time.ParseDuration(cfg.Transport.PollTimeoutRaw)
	if err != nil {
		return fmt.Errorf("parsing poll_timeout %q: %w", cfg.Transport.PollTimeoutRaw, err)
	}

	cfg.Relay.DedupeTTL, err = time.ParseDuration(cfg.Relay.DedupeTTLRaw)
	if err != nil {
		return fmt.Errorf("parsing dedupe_ttl %q: %w", cfg.Relay.DedupeTTLRaw, err)
	}

	return nil
}
