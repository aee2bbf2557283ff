// Package config holds the resolved configuration for the robit bridge.
// Values are loaded once at startup (defaults → json5 file → env overlay)
// and consumed verbatim by the bridge; nothing here is reloaded at runtime.
package config

// Config is the root configuration for the robit bridge daemon.
type Config struct {
	Bridge    BridgeConfig    `json:"bridge"`
	AI        AIConfig        `json:"ai"`
	History   HistoryConfig   `json:"history,omitempty"`
	Observe   ObserveConfig   `json:"observe,omitempty"`
	Transport TransportConfig `json:"transport,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// BridgeConfig scopes the bridge to one workspace and a set of rooms.
type BridgeConfig struct {
	WorkspaceID   string   `json:"workspace_id"`
	RoomIDs       []string `json:"room_ids"`
	MessagePrefix string   `json:"message_prefix,omitempty"` // tag on bridge-authored messages
	LegacyPrefix  string   `json:"legacy_prefix,omitempty"`  // older tag still present in history
	ContextWindow int      `json:"context_window,omitempty"` // max prior messages replayed per room
}

// AIConfig selects and configures the engine's AI backend.
// APIKey is NEVER read from the config file (secret) — env ROBIT_AI_KEY only.
type AIConfig struct {
	Backend     string  `json:"backend,omitempty"`  // "http" (default), "local", "" = disabled
	Provider    string  `json:"provider,omitempty"` // "openai", "deepseek", "anthropic"
	Model       string  `json:"model,omitempty"`
	APIKey      string  `json:"-"` // from env ROBIT_AI_KEY only
	BaseURL     string  `json:"base_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`

	Local LocalModelConfig `json:"local,omitempty"`
}

// LocalModelConfig configures the in-process model backend.
// Requires building with -tags localmodel; otherwise the backend resolves
// to unavailable regardless of these values.
type LocalModelConfig struct {
	ModelDir    string  `json:"model_dir,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// HistoryConfig configures the sqlite transcript store.
type HistoryConfig struct {
	Path string `json:"path,omitempty"` // sqlite file (default ~/.robit/history.db)
}

// ObserveConfig configures the optional operator event stream.
type ObserveConfig struct {
	Listen string `json:"listen,omitempty"` // e.g. "127.0.0.1:18791"; empty = disabled
}

// TransportConfig bounds outbound sends.
type TransportConfig struct {
	SendRatePerSec float64 `json:"send_rate_per_sec,omitempty"` // token bucket refill (default 1)
	SendBurst      int     `json:"send_burst,omitempty"`        // token bucket burst (default 5)
	OutboxDepth    int     `json:"outbox_depth,omitempty"`      // queued sends before drop (default 256)
}

// TelemetryConfig configures OpenTelemetry OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`     // e.g. "localhost:4317"
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // skip TLS (local dev)
	ServiceName string            `json:"service_name,omitempty"` // default "robit-bridge"
	Headers     map[string]string `json:"headers,omitempty"`      // extra OTLP headers
}
