// Package config handles configuration loading for event-relay.
//
// # Configuration File
//
// The path is resolved by the command (in order):
//
//  1. --config flag
//  2. EVENT_RELAY_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/event-relay/relay.yaml (~/.config when unset)
//
// Files ending in .toml are decoded as TOML; anything else is YAML.
//
// # Environment Variable Expansion
//
// Values can reference environment variables with ${VAR_NAME}. Unset
// variables expand to the empty string:
//
//	client:
//	  token: "${CLIENT_BOT_TOKEN}"
//
// # Configuration Sections
//
//	client:
//	  token: "${CLIENT_BOT_TOKEN}"
//	  upload_chat_id: -1001234567890   # chat used to re-upload attachments
//	service:
//	  token: "${SERVICE_BOT_TOKEN}"
//	  upload_chat_id: -1009876543210
//	transport:
//	  mode: "polling"                  # polling, webhook
//	  poll_timeout: "60s"
//	  http_addr: "127.0.0.1:8080"      # /healthz, /webhook/{endpoint}
//	  webhook_base_url: "https://relay.example.com"
//	database:
//	  driver: "sqlite"                 # sqlite (pure Go), sqlite3 (cgo)
//	  path: "/var/lib/event-relay/items.db"
//	bridge:
//	  staging_dir: "/var/cache/event-relay"
//	relay:
//	  client_bot_url: "https://t.me/EventsBot?start="
//	  dedupe_ttl: "10m"
//	logging:
//	  level: "info"                    # debug, info, warn, error
//	  format: "text"                   # text, json
//
// # Validation
//
// Load rejects missing or identical bot tokens, missing upload chats,
// unknown transport modes and database drivers, a webhook mode without
// an https base URL, and malformed durations.
package config
