package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magicmirror/mm-server/internal/config"
	"github.com/magicmirror/mm-server/internal/logger"
	"github.com/magicmirror/mm-server/internal/session"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		// flag package already printed usage/error
		os.Exit(2)
	}
	if cfg.ShowVersion {
		fmt.Println(config.Version())
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.LogLevel)
	}
	log := logger.Logger().With("component", "cli")

	timeouts := make(map[string]time.Duration, len(cfg.Apps))
	for id, app := range cfg.Apps {
		timeouts[id] = app.SessionTimeout
	}
	registry := session.NewRegistry(timeouts)

	log.Info("server started",
		"listen_host", cfg.ListenHost,
		"listen_port", cfg.ListenPort,
		"max_sessions", cfg.MaxSessions,
		"mtu", cfg.MTU,
		"fec_ratio", cfg.FECRatio,
		"apps", len(cfg.Apps),
		"version", config.Version(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickerDone := make(chan struct{})
	go runIdleCleanupTicker(ctx, registry, tickerDone)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case <-tickerDone:
		log.Info("idle cleanup ticker stopped")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}

	log.Info("server stopped", "remaining_sessions", registry.Count())
}

// runIdleCleanupTicker runs Registry.Tick on a fixed interval until ctx is
// canceled, the way the idle-cleanup pass in the reference implementation's
// main loop reaps detached-too-long and defunct sessions outside of any
// per-session lock.
func runIdleCleanupTicker(ctx context.Context, registry *session.Registry, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			registry.Tick(now)
		}
	}
}
