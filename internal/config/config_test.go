// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
client:
  token: "client-token"
  upload_chat_id: -100111
service:
  token: "service-token"
  upload_chat_id: -100222
  api_endpoint: "http://localhost:8081/bot%s/%s"
transport:
  mode: "webhook"
  poll_timeout: "30s"
  http_addr: "127.0.0.1:8080"
  webhook_base_url: "https://relay.example.com"
database:
  driver: "sqlite3"
  path: "./items.db"
bridge:
  staging_dir: "/tmp/staging"
relay:
  client_bot_url: "https://t.me/EventsBot?start="
  dedupe_ttl: "5m"
logging:
  level: "debug"
  format: "json"
`

const validTOML = `
[client]
token = "client-token"
upload_chat_id = -100111

[service]
token = "service-token"
upload_chat_id = -100222

[database]
path = "./items.db"

[relay]
dedupe_ttl = "90s"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "relay.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "client-token", cfg.Client.Token)
	assert.Equal(t, int64(-100111), cfg.Client.UploadChatID)
	assert.Equal(t, "http://localhost:8081/bot%s/%s", cfg.Service.APIEndpoint)
	assert.Equal(t, ModeWebhook, cfg.Transport.Mode)
	assert.Equal(t, 30*time.Second, cfg.Transport.PollTimeout)
	assert.Equal(t, "https://relay.example.com", cfg.Transport.WebhookBaseURL)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/staging", cfg.Bridge.StagingDir)
	assert.Equal(t, "https://t.me/EventsBot?start=", cfg.Relay.ClientBotURL)
	assert.Equal(t, 5*time.Minute, cfg.Relay.DedupeTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ValidTOMLWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "relay.toml", validTOML))
	require.NoError(t, err)

	assert.Equal(t, "service-token", cfg.Service.Token)
	assert.Equal(t, int64(-100222), cfg.Service.UploadChatID)
	assert.Equal(t, ModePolling, cfg.Transport.Mode)
	assert.Equal(t, 60*time.Second, cfg.Transport.PollTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 90*time.Second, cfg.Relay.DedupeTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CLIENT_TOKEN", "from-env")
	content := `
client:
  token: "${TEST_CLIENT_TOKEN}"
  upload_chat_id: 1
service:
  token: "service"
  upload_chat_id: 2
database:
  path: "items.db"
`
	cfg, err := Load(writeConfig(t, "relay.yaml", content))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Client.Token)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "relay.yaml", "client: [unterminated"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Parse(".yaml", []byte(`
client: {token: a, upload_chat_id: 1}
service: {token: b, upload_chat_id: 2}
database: {path: x.db}
relay: {dedupe_ttl: "soon"}
`))
	assert.ErrorContains(t, err, "dedupe_ttl")
}

func mustParse(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := Parse(".yaml", []byte(content))
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return mustParse(t, validYAML)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing client token", func(c *Config) { c.Client.Token = "" }, "client.token"},
		{"missing service token", func(c *Config) { c.Service.Token = "" }, "service.token"},
		{"same token", func(c *Config) { c.Service.Token = c.Client.Token }, "different bots"},
		{"missing client upload chat", func(c *Config) { c.Client.UploadChatID = 0 }, "client.upload_chat_id"},
		{"missing service upload chat", func(c *Config) { c.Service.UploadChatID = 0 }, "service.upload_chat_id"},
		{"unknown mode", func(c *Config) { c.Transport.Mode = "carrier-pigeon" }, "transport.mode"},
		{"webhook without addr", func(c *Config) { c.Transport.HTTPAddr = "" }, "http_addr"},
		{"webhook over http", func(c *Config) { c.Transport.WebhookBaseURL = "http://relay.example.com" }, "webhook_base_url"},
		{"polling ignores webhook fields", func(c *Config) {
			c.Transport.Mode = ModePolling
			c.Transport.WebhookBaseURL = ""
			c.Transport.HTTPAddr = ""
		}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"missing db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
