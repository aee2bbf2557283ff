package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robitlab/robit/internal/providers"
	"github.com/robitlab/robit/pkg/protocol"
)

const systemPrompt = "You are Robit, an assistant embedded in a chat room. " +
	"Answer briefly and stay on topic. You cannot run commands yourself; " +
	"suggest actions for a human to approve instead."

// aiReply answers an addressed free-form ask through the bound backend.
// Responses use the "chat" kind, which the dispatcher leaves untagged.
func (e *Engine) aiReply(m *protocol.MessagePayload) []protocol.Event {
	if e.ai == nil {
		return e.respond(m, protocol.KindNeedInput,
			"I did not recognize that command and no AI backend is configured; try '@robit help'.")
	}

	messages := make([]providers.Message, 0, e.historyLimit+1)
	messages = append(messages, providers.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, e.histories[m.RoomID]...)

	req := providers.ChatRequest{Messages: messages}
	if e.temperature > 0 {
		req.Options = map[string]any{providers.OptTemperature: e.temperature}
	}

	start := time.Now()
	resp, err := e.ai.Chat(context.Background(), req)
	if err != nil {
		slog.Warn("engine: AI call failed", "backend", e.aiLabel, "room", m.RoomID, "error", err)
		return e.respond(m, protocol.KindError, "AI backend error: "+err.Error())
	}
	slog.Debug("engine: AI reply", "backend", e.aiLabel, "room", m.RoomID,
		"duration", time.Since(start), "chars", len(resp.Content))

	return e.respond(m, "chat", resp.Content)
}
