package bridge

import (
	"log/slog"
	"strings"

	"github.com/robitlab/robit/internal/config"
	"github.com/robitlab/robit/internal/engine"
	"github.com/robitlab/robit/internal/localmodel"
	"github.com/robitlab/robit/internal/providers"
)

// configureBackend resolves the configured AI backend and binds it to the
// engine. Every failure path disables the backend and logs; nothing here
// is fatal to the worker.
func configureBackend(e *engine.Engine, cfg config.AIConfig) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "local", "localmodel":
		client, label := buildLocalBackend(cfg.Local)
		e.SetAIBackend(client, label)
	case "http":
		client, label := buildRemoteBackend(cfg)
		e.SetAIBackend(client, label)
	default:
		slog.Info("AI backend disabled by config", "backend", cfg.Backend)
		e.SetAIBackend(nil, "disabled")
	}
	e.SetAITemperature(cfg.Temperature)
}

// buildRemoteBackend constructs the HTTP provider client, or nil when
// configuration is incomplete or names an unsupported provider.
func buildRemoteBackend(cfg config.AIConfig) (providers.Provider, string) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		slog.Warn("AI backend disabled: model is empty")
		return nil, "disabled"
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		slog.Warn("AI backend disabled: API key is empty (set ROBIT_AI_KEY)")
		return nil, "disabled"
	}

	var client providers.Provider
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "openai", "chatgpt":
		client = providers.NewOpenAIProvider("openai", key, cfg.BaseURL, model)
	case "deepseek":
		client = providers.NewOpenAIProvider("deepseek", key, cfg.BaseURL, model)
	case "anthropic", "claude":
		client = providers.NewAnthropicProvider(key,
			providers.WithAnthropicModel(model),
			providers.WithAnthropicBaseURL(cfg.BaseURL))
	default:
		slog.Warn("AI backend disabled: unknown provider", "provider", cfg.Provider)
		return nil, "disabled"
	}

	label := client.Name() + ":" + model
	slog.Info("AI backend enabled", "provider", client.Name(), "model", model)
	return client, label
}

// buildLocalBackend constructs the in-process model client. A build
// without the localmodel tag logs "unavailable" — distinct from the
// config-disabled path so operators can tell the two apart.
func buildLocalBackend(cfg config.LocalModelConfig) (providers.Provider, string) {
	if strings.TrimSpace(cfg.ModelDir) == "" {
		slog.Warn("local model disabled: model dir is empty")
		return nil, "local:disabled"
	}
	client, err := localmodel.New(localmodel.Config{
		ModelDir:    cfg.ModelDir,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		if err == localmodel.ErrUnavailable {
			slog.Warn("local model unavailable: capability not compiled in")
			return nil, "local:unavailable"
		}
		slog.Warn("local model disabled", "error", err)
		return nil, "local:disabled"
	}
	slog.Info("local model enabled", "model_dir", cfg.ModelDir)
	return client, "local:" + client.DefaultModel()
}
