package main

import (
	"context"
	"log"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/netaddr"
	"github.com/deltasnap/deltasnap/internal/netsim"
	"github.com/deltasnap/deltasnap/internal/session"
	"github.com/deltasnap/deltasnap/internal/simdemo"
)

func benchCmd() *cobra.Command {
	var (
		cubes      int
		ticks      int
		sendRate   float64
		packetLoss float64
		latency    float64
		jitter     float64
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a loss-burst scenario and report delivery and bandwidth stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cubes, ticks, sendRate, packetLoss, latency, jitter, seed)
		},
	}

	cmd.Flags().IntVar(&cubes, "cubes", 64, "number of simulated cubes")
	cmd.Flags().IntVar(&ticks, "ticks", 600, "number of send ticks to run")
	cmd.Flags().Float64Var(&sendRate, "send-rate", 10, "sender ticks per second")
	cmd.Flags().Float64Var(&packetLoss, "packet-loss", 50, "simulated packet loss percentage")
	cmd.Flags().Float64Var(&latency, "latency", 0.05, "simulated one-way latency in seconds")
	cmd.Flags().Float64Var(&jitter, "jitter", 0.01, "simulated latency jitter in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 99, "RNG seed, for reproducible runs")

	return cmd
}

func runBench(cubes, ticks int, sendRate, packetLoss, latency, jitter float64, seed int64) error {
	ctx := context.Background()
	collector := metrics.New()

	deltaCfg := delta.DefaultConfig()
	deltaCfg.NumCubes = cubes
	sessCfg := session.DefaultConfig()
	sessCfg.Delta = deltaCfg
	sessCfg.SendRate = sendRate
	sessCfg.InitialSnapshot = delta.NewSnapshot(cubes)

	senderSession, err := session.New(sessCfg, collector, nil)
	if err != nil {
		return err
	}
	receiverSession, err := session.New(sessCfg, collector, nil)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	sim := netsim.New(netsim.Config{NumPackets: 1024, StateChance: 1, MaxPacketSize: 1400}, rng)
	sim.SetStates([]netsim.State{{Latency: latency, Jitter: jitter, PacketLoss: packetLoss}})
	sim.SetMetrics(collector)

	world := simdemo.NewWorld(cubes, sessCfg.Delta.Quantize, rng)

	addrSender := netaddr.NewIPv4(127, 0, 0, 1, 9001)
	addrReceiver := netaddr.NewIPv4(127, 0, 0, 1, 9002)

	dt := 1.0 / sendRate
	now := 0.0
	sent, delivered, dropped := 0, 0, 0

	log.Printf("🧪 bench starting: cubes=%d ticks=%d packet_loss=%.0f%% latency=%.3fs jitter=%.3fs",
		cubes, ticks, packetLoss, latency, jitter)

	for tick := 0; tick < ticks; tick++ {
		now += dt
		world.Step(dt)

		world.SampleSnapshot(func(snap *delta.Snapshot) {
			buf, _, err := senderSession.SenderTick(ctx, snap)
			if err != nil {
				log.Printf("⚠️  sender tick error: %v", err)
				return
			}
			sent++
			sim.Send(addrReceiver, buf, false)
		})

		sim.Update(dt)

		for {
			pkt, ok := sim.Receive()
			if !ok {
				break
			}
			switch pkt.Address {
			case addrReceiver:
				ackBuf, err := receiverSession.ReceiverTick(ctx, now, pkt.Payload)
				if err != nil {
					dropped++
					continue
				}
				delivered++
				sim.Send(addrSender, ackBuf, true)
			case addrSender:
				_ = senderSession.HandleAck(pkt.Payload)
			}
		}
	}

	lossRate := 0.0
	if sent > 0 {
		lossRate = 100 * float64(sent-delivered) / float64(sent)
	}
	log.Printf("📈 sent=%d delivered=%d observed_loss=%.1f%% %s", sent, delivered, lossRate, sim.BandwidthSummary())
	return nil
}
