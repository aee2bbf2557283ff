package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Bridge.MessagePrefix != "[Robit] " {
		t.Errorf("MessagePrefix = %q", cfg.Bridge.MessagePrefix)
	}
	if cfg.Bridge.LegacyPrefix != "[Robit-LEGACY] " {
		t.Errorf("LegacyPrefix = %q", cfg.Bridge.LegacyPrefix)
	}
	if cfg.Bridge.ContextWindow != 50 {
		t.Errorf("ContextWindow = %d", cfg.Bridge.ContextWindow)
	}
	if cfg.AI.Backend != "http" || cfg.AI.Provider != "deepseek" || cfg.AI.Model != "deepseek-chat" {
		t.Errorf("AI defaults = %+v", cfg.AI)
	}
	if cfg.AI.Temperature != 0.2 {
		t.Errorf("Temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Transport.SendRatePerSec != 1 || cfg.Transport.SendBurst != 5 {
		t.Errorf("Transport defaults = %+v", cfg.Transport)
	}
	if cfg.Telemetry.Protocol != "grpc" || cfg.Telemetry.ServiceName != "robit-bridge" {
		t.Errorf("Telemetry defaults = %+v", cfg.Telemetry)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.MessagePrefix != "[Robit] " {
		t.Errorf("defaults not applied: %+v", cfg.Bridge)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robit.json5")
	content := `{
	// json5: comments and trailing commas allowed
	bridge: {
		workspace_id: "ws-1",
		room_ids: ["!a:example.org", "!b:example.org"],
		context_window: 10,
	},
	ai: {
		backend: "http",
		provider: "anthropic",
		model: "claude-sonnet-4-20250514",
		temperature: 0.5,
	},
	observe: { listen: "127.0.0.1:18791" },
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.WorkspaceID != "ws-1" || len(cfg.Bridge.RoomIDs) != 2 {
		t.Errorf("bridge = %+v", cfg.Bridge)
	}
	if cfg.Bridge.ContextWindow != 10 {
		t.Errorf("ContextWindow = %d, want 10", cfg.Bridge.ContextWindow)
	}
	if cfg.AI.Provider != "anthropic" || cfg.AI.Temperature != 0.5 {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.Observe.Listen != "127.0.0.1:18791" {
		t.Errorf("observe = %+v", cfg.Observe)
	}
	// File values never carry the prefix defaults away.
	if cfg.Bridge.MessagePrefix != "[Robit] " {
		t.Errorf("MessagePrefix = %q", cfg.Bridge.MessagePrefix)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROBIT_WORKSPACE_ID", "ws-env")
	t.Setenv("ROBIT_ROOM_IDS", " !a:x , , !b:x ")
	t.Setenv("ROBIT_AI_KEY", "sk-secret")
	t.Setenv("ROBIT_AI_PROVIDER", "openai")
	t.Setenv("ROBIT_CONTEXT_WINDOW", "7")
	t.Setenv("ROBIT_TELEMETRY_ENABLED", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.WorkspaceID != "ws-env" {
		t.Errorf("WorkspaceID = %q", cfg.Bridge.WorkspaceID)
	}
	want := []string{"!a:x", "!b:x"}
	if len(cfg.Bridge.RoomIDs) != len(want) {
		t.Fatalf("RoomIDs = %v, want %v", cfg.Bridge.RoomIDs, want)
	}
	for i := range want {
		if cfg.Bridge.RoomIDs[i] != want[i] {
			t.Errorf("RoomIDs[%d] = %q, want %q", i, cfg.Bridge.RoomIDs[i], want[i])
		}
	}
	if cfg.AI.APIKey != "sk-secret" {
		t.Errorf("APIKey not taken from env")
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.AI.Provider)
	}
	if cfg.Bridge.ContextWindow != 7 {
		t.Errorf("ContextWindow = %d, want 7", cfg.Bridge.ContextWindow)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled not set from env")
	}
}

func TestLoad_APIKeyNeverFromFile(t *testing.T) {
	t.Setenv("ROBIT_AI_KEY", "")
	path := filepath.Join(t.TempDir(), "robit.json5")
	content := `{ ai: { api_key: "sk-in-file" } }`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "" {
		t.Errorf("APIKey = %q, secrets must come from ROBIT_AI_KEY only", cfg.AI.APIKey)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandHome("~/.robit/history.db"); got != filepath.Join(home, ".robit/history.db") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("absolute path changed: %q", got)
	}
}
