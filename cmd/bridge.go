package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robitlab/robit/internal/bridge"
	"github.com/robitlab/robit/internal/config"
	"github.com/robitlab/robit/internal/history"
	"github.com/robitlab/robit/internal/observe"
	"github.com/robitlab/robit/internal/telemetry"
	"github.com/robitlab/robit/internal/transport"
)

func runBridge() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	telemetryShutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry disabled", "error", err)
		telemetryShutdown = func(context.Context) error { return nil }
	}

	// Transcript store: failure degrades to no persistence, not a crash.
	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("history store disabled", "error", err)
			store = nil
		}
	}

	var observeServer *observe.Server
	if cfg.Observe.Listen != "" {
		observeServer = observe.NewServer(cfg.Observe.Listen)
		observeServer.Start()
	}

	outbox := transport.NewOutbox(transport.LogSink{}, transport.OutboxConfig{
		RatePerSec: cfg.Transport.SendRatePerSec,
		Burst:      cfg.Transport.SendBurst,
		Depth:      cfg.Transport.OutboxDepth,
	})

	events := bridgeEvents(store, observeServer)

	rt := bridge.NewFromConfig(cfg, outbox, events)
	if rt == nil {
		slog.Error("bridge not started: set bridge.room_ids in the config or ROBIT_ROOM_IDS")
		os.Exit(1)
	}
	rt.Start()
	replayContext(rt, store)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	rt.Close()
	outbox.Close()
	if observeServer != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		observeServer.Stop(stopCtx)
		cancel()
	}
	if store != nil {
		store.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	_ = telemetryShutdown(shutdownCtx)
	cancel()
}

// bridgeEvents fans bridge events into the transcript store and the
// observe stream. Nil sinks are skipped.
func bridgeEvents(store *history.Store, obs *observe.Server) bridge.EventFunc {
	return func(name string, payload any) {
		if obs != nil {
			obs.Broadcast(name, payload)
		}
		if store == nil {
			return
		}
		fields, _ := payload.(map[string]any)
		switch name {
		case "submit":
			err := store.RecordInbound(
				str(fields["room"]), str(fields["message"]), str(fields["sender"]), str(fields["text"]))
			if err != nil {
				slog.Warn("transcript write failed", "error", err)
			}
		case "response":
			err := store.RecordOutbound(str(fields["room"]), str(fields["kind"]), str(fields["text"]))
			if err != nil {
				slog.Warn("transcript write failed", "error", err)
			}
		}
	}
}

// replayContext seeds the engine with each scoped room's recent
// transcript, then marks the room ready for live submissions.
func replayContext(rt *bridge.Runtime, store *history.Store) {
	for _, roomID := range rt.Scope().RoomIDs() {
		if store != nil && !rt.ContextLoaded(roomID) {
			entries, err := store.Recent(roomID, rt.ContextWindowSize())
			if err != nil {
				slog.Warn("context replay failed", "room", roomID, "error", err)
			}
			for i, e := range entries {
				id := e.MessageID
				if id == "" {
					id = fmt.Sprintf("hist-%d", i)
				}
				rt.SubmitContextMessage(roomID, id, e.SenderID, e.Text, e.Role)
			}
			if len(entries) > 0 {
				slog.Info("context replayed", "room", roomID, "messages", len(entries))
			}
		}
		rt.MarkContextLoaded(roomID)
		rt.MarkRoomReady(roomID)
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
