package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/session"
	"github.com/deltasnap/deltasnap/internal/simdemo"
	"github.com/deltasnap/deltasnap/internal/transport"
)

func connectCmd() *cobra.Command {
	var (
		server   string
		listen   string
		cubes    int
		sendRate float64
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Run a sender session over real UDP against a netdemo serve instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(server, listen, cubes, sendRate)
		},
	}

	cmd.Flags().StringVar(&server, "server", "127.0.0.1:9000", "server address to send snapshots to")
	cmd.Flags().StringVar(&listen, "listen", ":0", "local address to receive acks on")
	cmd.Flags().IntVar(&cubes, "cubes", 64, "number of simulated cubes")
	cmd.Flags().Float64Var(&sendRate, "send-rate", 10, "sender ticks per second")

	return cmd
}

func runConnect(server, listen string, cubes int, sendRate float64) error {
	ctx := context.Background()
	collector := metrics.New()

	cfg := session.DefaultConfig()
	cfg.Delta.NumCubes = cubes
	cfg.SendRate = sendRate
	cfg.InitialSnapshot = delta.NewSnapshot(cubes)

	sess, err := session.New(cfg, collector, nil)
	if err != nil {
		return err
	}

	t := transport.NewUDPTransport(transport.DefaultConfig())
	t.OnMessage(func(peer string, data []byte) {
		if err := sess.HandleAck(data); err != nil {
			log.Printf("⚠️  ack error: %v", err)
		}
	})

	if err := t.Listen(listen); err != nil {
		return err
	}
	defer t.Close()

	world := simdemo.NewWorld(cubes, cfg.Delta.Quantize, rand.New(rand.NewSource(time.Now().UnixNano())))

	dt := 1.0 / sendRate
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("📡 connecting to %s from %s, cubes=%d send_rate=%.1f", server, t.LocalAddr(), cubes, sendRate)

	for {
		select {
		case <-sigCh:
			log.Println("🛑 shutting down...")
			return nil
		case <-ticker.C:
			world.Step(dt)
			world.SampleSnapshot(func(snap *delta.Snapshot) {
				buf, seq, err := sess.SenderTick(ctx, snap)
				if err != nil {
					log.Printf("⚠️  sender tick error: %v", err)
					return
				}
				if err := t.SendUnreliable(server, buf); err != nil {
					log.Printf("⚠️  send error: %v", err)
					return
				}
				if seq%uint16(sendRate) == 0 {
					log.Printf("📤 sent seq=%d state=%s", seq, sess.State())
				}
			})
		}
	}
}
