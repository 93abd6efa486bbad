package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/registry"
	"github.com/deltasnap/deltasnap/internal/session"
	"github.com/deltasnap/deltasnap/internal/telemetry"
	"github.com/deltasnap/deltasnap/internal/transport"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		httpAddr string
		cubes    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a receiver session over real UDP, one per connecting peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, httpAddr, cubes)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9000", "UDP address to listen on")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":9090", "HTTP address serving the telemetry dashboard")
	cmd.Flags().IntVar(&cubes, "cubes", 64, "number of cubes each peer will send")

	return cmd
}

func runServe(addr, httpAddr string, cubes int) error {
	ctx := context.Background()
	collector := metrics.New()
	reg := registry.NewRegistry(registry.DefaultConfig(), collector)

	cfg := session.DefaultConfig()
	cfg.Delta.NumCubes = cubes
	cfg.InitialSnapshot = delta.NewSnapshot(cubes)

	t := transport.NewUDPTransport(transport.DefaultConfig())

	peerSessions := make(map[string]*registry.Entry)

	t.OnMessage(func(peer string, data []byte) {
		entry, ok := peerSessions[peer]
		if !ok {
			var err error
			entry, err = reg.Create(cfg, nil)
			if err != nil {
				log.Printf("⚠️  [%s] could not register session: %v", peer, err)
				return
			}
			peerSessions[peer] = entry
		}
		entry.Touch()

		ackBuf, err := entry.Session.ReceiverTick(ctx, nowSeconds(), data)
		if err != nil {
			log.Printf("⚠️  [%s] receiver tick error: %v", peer, err)
			return
		}
		if err := t.SendUnreliable(peer, ackBuf); err != nil {
			log.Printf("⚠️  [%s] ack send error: %v", peer, err)
		}
	})
	t.OnConnect(func(peer string) {
		log.Printf("✅ peer connected: %s", peer)
	})
	t.OnDisconnect(func(peer string) {
		log.Printf("❎ peer disconnected: %s", peer)
		delete(peerSessions, peer)
	})

	log.Printf("🎧 listening on UDP %s", addr)
	if err := t.Listen(addr); err != nil {
		return err
	}

	dashboard := telemetry.NewServer(reg, nil)
	httpServer := &http.Server{Addr: httpAddr, Handler: dashboard.Handler()}
	go func() {
		log.Printf("📺 telemetry dashboard on http://%s", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️  telemetry server error: %v", err)
		}
	}()

	done := make(chan struct{})
	go dashboard.Broadcast(time.Second, done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 shutting down...")
	close(done)
	_ = httpServer.Close()
	return t.Close()
}

var processStart = time.Now()

func nowSeconds() float64 {
	return time.Since(processStart).Seconds()
}
