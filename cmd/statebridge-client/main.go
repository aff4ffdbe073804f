// Command statebridge-client runs the client-side state-bridge
// engine: it loads configuration, builds the matching slot registry,
// and dials the server, reconnecting automatically until an interrupt
// or SIGTERM is received.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statebridge/core/internal/breaker"
	"github.com/statebridge/core/internal/bus"
	"github.com/statebridge/core/internal/config"
	"github.com/statebridge/core/internal/metrics"
	"github.com/statebridge/core/internal/registry"
	"github.com/statebridge/core/internal/slot"
	"github.com/statebridge/core/internal/syncclient"
)

func main() {
	cfg := config.Load()
	configureLogging(cfg.Logging)

	slog.Info("statebridge-client starting",
		"server_addr", cfg.Server.ListenAddr,
		"protocol_version", cfg.Server.ProtocolVersion)

	reg := buildRegistry()
	notifier := bus.NewNotifier(64)
	metricsReg := metrics.New()

	token := uint64(0)
	if len(cfg.Server.AllowedTokens) > 0 {
		token = cfg.Server.AllowedTokens[0]
	}

	cl := syncclient.New(syncclient.Config{
		ServerAddr:      cfg.Server.ListenAddr,
		ProtocolVersion: cfg.Server.ProtocolVersion,
		Token:           token,
		RetryDelay:      time.Second,
		DialTimeout:     5 * time.Second,
	}, reg, notifier, metricsReg, slog.Default(), breaker.New(breaker.DefaultConfig()), 256)

	cl.OnConnectionStateChange(func(s syncclient.ConnState) {
		slog.Info("statebridge-client: connection state changed", "state", s.String())
	})

	go logNotifierEvents(notifier)

	cl.Start()
	cl.Connect()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("statebridge-client: shutting down")
	cl.Stop()
	slog.Info("statebridge-client: stopped")
}

// buildRegistry declares the client's slot schema, mirroring the
// server's. Both sides must agree on slot ids and shapes; a real
// deployment shares this declaration between the two binaries.
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
			slog.Warn("statebridge-client: notifier error", "slot_id", ev.SlotID, "error", err)
			continue
		}
		slog.Debug("statebridge-client: slot changed", "slot_id", ev.SlotID, "value", ev.Value)
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
