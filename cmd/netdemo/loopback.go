package main

import (
	"context"
	"log"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/deltasnap/deltasnap/internal/config"
	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/netaddr"
	"github.com/deltasnap/deltasnap/internal/netsim"
	"github.com/deltasnap/deltasnap/internal/session"
	"github.com/deltasnap/deltasnap/internal/simdemo"
)

func loopbackCmd() *cobra.Command {
	var (
		cubes      int
		ticks      int
		sendRate   float64
		deltaMode  int
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "loopback",
		Short: "Run a sender and receiver in-process through the network simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoopback(cubes, ticks, sendRate, deltaMode, configPath)
		},
	}

	cmd.Flags().IntVar(&cubes, "cubes", 64, "number of simulated cubes")
	cmd.Flags().IntVar(&ticks, "ticks", 300, "number of send ticks to run")
	cmd.Flags().Float64Var(&sendRate, "send-rate", 10, "sender ticks per second")
	cmd.Flags().IntVar(&deltaMode, "mode", int(delta.RelativeIndex), "delta_mode to start with (0-4)")
	cmd.Flags().StringVar(&configPath, "config", "", "session/simulator YAML config (overrides other flags)")

	return cmd
}

func runLoopback(cubes, ticks int, sendRate float64, deltaMode int, configPath string) error {
	ctx := context.Background()
	collector := metrics.New()

	deltaCfg := delta.DefaultConfig()
	deltaCfg.NumCubes = cubes
	sessCfg := session.DefaultConfig()
	sessCfg.Delta = deltaCfg
	sessCfg.SendRate = sendRate
	sessCfg.DeltaMode = delta.Mode(deltaMode)
	sessCfg.InitialSnapshot = delta.NewSnapshot(cubes)

	simCfg := netsim.DefaultConfig()
	states := []netsim.State{{Latency: 0.1, Jitter: 0.02, PacketLoss: 2}}

	if configPath != "" {
		f, err := config.Load(configPath)
		if err != nil {
			return err
		}
		sessCfg = f.SessionConfig(delta.NewSnapshot(f.NumCubes))
		simCfg, states = f.SimulatorConfig()
		cubes = f.NumCubes
		sendRate = sessCfg.SendRate
		deltaMode = int(sessCfg.DeltaMode)
	}

	senderSession, err := session.New(sessCfg, collector, nil)
	if err != nil {
		return err
	}
	receiverSession, err := session.New(sessCfg, collector, nil)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	sim := netsim.New(simCfg, rng)
	sim.SetStates(states)
	sim.SetMetrics(collector)

	world := simdemo.NewWorld(cubes, sessCfg.Delta.Quantize, rng)

	addrSender := netaddr.NewIPv4(127, 0, 0, 1, 9001)
	addrReceiver := netaddr.NewIPv4(127, 0, 0, 1, 9002)

	dt := 1.0 / sendRate
	now := 0.0

	log.Printf("🎮 loopback starting: cubes=%d ticks=%d send_rate=%.1f mode=%s", cubes, ticks, sendRate, delta.Mode(deltaMode))

	for tick := 0; tick < ticks; tick++ {
		now += dt
		world.Step(dt)

		world.SampleSnapshot(func(snap *delta.Snapshot) {
			buf, _, err := senderSession.SenderTick(ctx, snap)
			if err != nil {
				log.Printf("⚠️  sender tick error: %v", err)
				return
			}
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
					log.Printf("⚠️  receiver tick error: %v", err)
					continue
				}
				sim.Send(addrSender, ackBuf, true)
			case addrSender:
				if err := senderSession.HandleAck(pkt.Payload); err != nil {
					log.Printf("⚠️  ack error: %v", err)
				}
			}
		}

		if views, ok := receiverSession.GetViewUpdate(now); ok && tick%int(sendRate) == 0 {
			log.Printf("📊 t=%.1fs cubes=%d %s", now, len(views), sim.BandwidthSummary())
		}
	}

	log.Println("👋 loopback finished")
	return nil
}
