package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			MessagePrefix: "[Robit] ",
			LegacyPrefix:  "[Robit-LEGACY] ",
			ContextWindow: 50,
		},
		AI: AIConfig{
			Backend:     "http",
			Provider:    "deepseek",
			Model:       "deepseek-chat",
			Temperature: 0.2,
			Local: LocalModelConfig{
				Temperature: 0.2,
				MaxTokens:   128,
			},
		},
		History: HistoryConfig{
			Path: "~/.robit/history.db",
		},
		Transport: TransportConfig{
			SendRatePerSec: 1,
			SendBurst:      5,
			OutboxDepth:    256,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "robit-bridge",
		},
	}
}

// Load reads config from a json5 file, then overlays env vars.
// A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.expandPaths()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.expandPaths()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("ROBIT_WORKSPACE_ID", &c.Bridge.WorkspaceID)
	envStr("ROBIT_MESSAGE_PREFIX", &c.Bridge.MessagePrefix)
	envStr("ROBIT_AI_BACKEND", &c.AI.Backend)
	envStr("ROBIT_AI_PROVIDER", &c.AI.Provider)
	envStr("ROBIT_AI_MODEL", &c.AI.Model)
	envStr("ROBIT_AI_KEY", &c.AI.APIKey)
	envStr("ROBIT_AI_BASE_URL", &c.AI.BaseURL)
	envStr("ROBIT_LOCAL_MODEL_DIR", &c.AI.Local.ModelDir)
	envStr("ROBIT_HISTORY_PATH", &c.History.Path)
	envStr("ROBIT_OBSERVE_LISTEN", &c.Observe.Listen)
	envStr("ROBIT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)

	if v := os.Getenv("ROBIT_ROOM_IDS"); v != "" {
		c.Bridge.RoomIDs = splitList(v)
	}
	if v := os.Getenv("ROBIT_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Bridge.ContextWindow = n
		}
	}
	if v := os.Getenv("ROBIT_AI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.AI.Temperature = f
		}
	}
	if v := os.Getenv("ROBIT_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ROBIT_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "1" || strings.EqualFold(v, "true")
	}
}

// expandPaths resolves "~/" prefixes in path-valued fields.
func (c *Config) expandPaths() {
	c.History.Path = expandHome(c.History.Path)
	c.AI.Local.ModelDir = expandHome(c.AI.Local.ModelDir)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
