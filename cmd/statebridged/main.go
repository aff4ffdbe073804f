// Command statebridged runs the server-side state-bridge engine: it
// loads configuration, builds the slot registry, and serves the sync
// protocol until an interrupt or SIGTERM is received.
//
// Grounded on the teacher's cmd/socket-gateway/main.go overall shape:
// env-driven component construction with a slog.Info line per
// component, followed by an os/signal-driven shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statebridge/core/internal/bus"
	"github.com/statebridge/core/internal/config"
	"github.com/statebridge/core/internal/debughttp"
	"github.com/statebridge/core/internal/metrics"
	"github.com/statebridge/core/internal/registry"
	"github.com/statebridge/core/internal/slot"
	"github.com/statebridge/core/internal/syncserver"
)

func main() {
	cfg := config.Load()
	configureLogging(cfg.Logging)

	slog.Info("statebridged starting",
		"listen_addr", cfg.Server.ListenAddr,
		"protocol_version", cfg.Server.ProtocolVersion)

	reg := buildRegistry()
	slog.Info("registry built")

	notifier := bus.NewNotifier(64)
	metricsReg := metrics.New()

	srv := syncserver.New(syncserver.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		ProtocolVersion: cfg.Server.ProtocolVersion,
		AllowedTokens:   cfg.AllowedTokenSet(),
	}, reg, notifier, metricsReg, slog.Default(), 256)

	go logNotifierEvents(notifier)

	if err := srv.Start(); err != nil {
		slog.Error("statebridged: failed to start", "error", err)
		os.Exit(1)
	}
	slog.Info("statebridged: listening", "addr", cfg.Server.ListenAddr)

	var debugSrv *debughttp.Server
	if cfg.Debug.ListenAddr != "" {
		debugSrv = debughttp.New(cfg.Debug.ListenAddr, metricsReg.Gatherer(), srv.IsRunning, slog.Default())
		debugSrv.Start()
		slog.Info("statebridged: debug surface listening", "addr", cfg.Debug.ListenAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("statebridged: shutting down")
	srv.Stop()
	if debugSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := debugSrv.Stop(ctx); err != nil {
			slog.Warn("statebridged: debug surface shutdown error", "error", err)
		}
	}
	slog.Info("statebridged: stopped")
}

// buildRegistry declares the host's slot schema. A real deployment
// would derive this from its own domain model; this entry point
// declares a small representative set (one scalar, one static, one
// string and one signal slot) so the binary is runnable as-is. The leading scalar is i64 and carries
// CapAcknowledgeable so the "scalar echo" scenario (spec.md §8
// scenario 2: client writes a value, server dispatches and replies
// with Ack) is actually exercised end to end, not just documented.
func buildRegistry() *registry.Registry {
	b := registry.NewBuilder()
	registry.AddScalar[int64](b, 0, slot.CapReadable|slot.CapWritable|slot.CapSyncOnConnect|slot.CapAcknowledgeable)
	registry.AddStatic[int32](b, 0, slot.CapReadable|slot.CapSyncOnConnect)
	registry.AddString(b, "", slot.CapReadable|slot.CapWritable|slot.CapSyncOnConnect|slot.CapAcknowledgeable)
	registry.AddSignal(b, slot.CapWritable)
	return b.Build()
}

func logNotifierEvents(n *bus.Notifier) {
	events := n.Subscribe()
	defer n.Unsubscribe(events)
	for ev := range events {
		if err, ok := ev.Value.(error); ok {
			slog.Warn("statebridged: notifier error", "slot_id", ev.SlotID, "error", err)
			continue
		}
		slog.Debug("statebridged: slot changed", "slot_id", ev.SlotID, "value", ev.Value)
	}
}

func configureLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
