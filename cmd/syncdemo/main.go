// Command syncdemo boots a Scene Replication Engine host, as either the
// authoritative server or a connecting client, wiring a QUIC transport,
// scene, and SyncManager together and driving the tick loop from a real
// clock. It exists to give the engine a runnable composition root, the
// way examples/simple_web_game/main.go does for the teacher's ECS.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tundra"
	"tundra/axlog/slogadapter"
	"tundra/components"
	"tundra/config"
	"tundra/peer"
	"tundra/scene"
	"tundra/transport/quictransport"
)

func registerComponents(w *scene.World) {
	w.RegisterComponentFactory(components.TransformTypeHash, func(name string) scene.Component {
		return components.NewTransform(name)
	})
	w.RegisterComponentFactory(components.NameTypeHash, func(name string) scene.Component {
		return components.NewName(name)
	})
	w.RegisterComponentFactory(components.DynamicAttributesTypeHash, func(name string) scene.Component {
		return components.NewDynamicAttributes(name)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slogadapter.New(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	world := scene.NewWorld()
	registerComponents(world)
	directory := peer.NewDirectory()

	var (
		tp   tundra.Transport
		role tundra.Role
	)

	switch cfg.Role {
	case config.RoleServer:
		role = tundra.RoleServer
		tlsConf, err := quictransport.SelfSignedTLSConfig("tundra-sync")
		if err != nil {
			log.Fatalf("tls: %v", err)
		}
		qt := quictransport.New(cfg.ListenAddr, tlsConf, nil, nil, logger)
		if err := qt.Start(ctx); err != nil {
			log.Fatalf("listen: %v", err)
		}
		defer qt.Close()
		tp = qt
	case config.RoleClient:
		role = tundra.RoleClient
		tlsConf := quictransport.InsecureClientTLSConfig("tundra-sync")
		qt, err := quictransport.Dial(ctx, cfg.ListenAddr, tlsConf, nil, logger)
		if err != nil {
			log.Fatalf("dial: %v", err)
		}
		defer qt.Close()
		tp = qt
	}

	manager := tundra.NewSyncManager(role, world, directory, tp, logger, cfg.UpdatePeriod)

	// NewSyncManager has now registered its callbacks with tp; a dialed
	// client transport can fire its one connect/authenticate event.
	if dialed, ok := tp.(*quictransport.QuicTransport); ok && role == tundra.RoleClient {
		dialed.NotifyReady()
	}

	logger.Info("syncdemo started", "role", string(cfg.Role), "addr", cfg.ListenAddr)

	ticker := time.NewTicker(cfg.UpdatePeriod)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("syncdemo shutting down")
			return
		case now := <-ticker.C:
			manager.Tick(now.Sub(last))
			last = now
		}
	}
}
