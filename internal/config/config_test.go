package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deltasnap/deltasnap/internal/delta"
)

const validYAML = `
num_cubes: 64
max_snapshots: 128
playout_delay: 0.1
send_rate: 10
delta_mode: 2
compress_initial: true
simulator:
  num_packets: 256
  state_chance: 10
  max_packet_size: 1400
  states:
    - latency: 0.1
      jitter: 0.02
      packet_loss: 5
`

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	f, err := Load(writeFile(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.NumCubes != 64 || f.MaxSnapshots != 128 {
		t.Errorf("unexpected parse: %+v", f)
	}

	deltaCfg := f.DeltaConfig()
	if deltaCfg.NumCubes != 64 {
		t.Errorf("DeltaConfig.NumCubes = %d, want 64", deltaCfg.NumCubes)
	}

	initial := delta.NewSnapshot(64)
	sessCfg := f.SessionConfig(initial)
	if sessCfg.MaxSnapshots != 128 || sessCfg.DeltaMode != delta.RelativeIndex {
		t.Errorf("unexpected session config: %+v", sessCfg)
	}

	simCfg, states := f.SimulatorConfig()
	if simCfg.NumPackets != 256 || len(states) != 1 || states[0].PacketLoss != 5 {
		t.Errorf("unexpected simulator config: %+v %+v", simCfg, states)
	}
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	_, err := Load(writeFile(t, "num_cubes: 64\n"))
	if err == nil {
		t.Fatal("expected a schema validation error for a missing required field")
	}
}

func TestLoadRejectsOutOfRangeValue(t *testing.T) {
	bad := strings.Replace(validYAML, "delta_mode: 2", "delta_mode: 99", 1)
	_, err := Load(writeFile(t, bad))
	if err == nil {
		t.Fatal("expected a schema validation error for delta_mode out of [0,4]")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
