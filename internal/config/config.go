// Package config loads the YAML file that configures one side of a
// delta-snapshot session plus the network simulator in front of it,
// validating it against an embedded JSON Schema before handing back
// typed config for internal/session, internal/delta, and internal/netsim
// to consume.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/netsim"
	"github.com/deltasnap/deltasnap/internal/quantize"
	"github.com/deltasnap/deltasnap/internal/session"
)

//go:embed schemas/session.schema.json
var schemaJSON []byte

// File is the on-disk shape of a session config YAML document.
type File struct {
	NumCubes         int     `yaml:"num_cubes"`
	UnitsPerMeter    int     `yaml:"units_per_meter"`
	PositionBoundXY  int     `yaml:"position_bound_xy"`
	PositionBoundZ   int     `yaml:"position_bound_z"`
	OrientationBits  int     `yaml:"orientation_bits"`
	MaxSnapshots     int     `yaml:"max_snapshots"`
	PlayoutDelay     float64 `yaml:"playout_delay"`
	SendRate         float64 `yaml:"send_rate"`
	DeltaMode        int     `yaml:"delta_mode"`
	CompressInitial  bool    `yaml:"compress_initial"`
	Simulator        SimulatorFile `yaml:"simulator"`
}

// SimulatorFile is the on-disk shape of the network simulator section.
type SimulatorFile struct {
	NumPackets    int          `yaml:"num_packets"`
	StateChance   int          `yaml:"state_chance"`
	MaxPacketSize int          `yaml:"max_packet_size"`
	States        []StateFile  `yaml:"states"`
}

// StateFile is one entry of the simulator's state rotation.
type StateFile struct {
	Latency    float64 `yaml:"latency"`
	Jitter     float64 `yaml:"jitter"`
	PacketLoss float64 `yaml:"packet_loss"`
}

// Load reads, parses, and schema-validates the YAML file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &f, nil
}

func validate(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("session.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("schema resource: %w", err)
	}
	schema, err := compiler.Compile("session.schema.json")
	if err != nil {
		return fmt.Errorf("schema compile: %w", err)
	}

	// jsonschema validates against a JSON-shaped document (map keys are
	// strings, numbers are float64/int). yaml.v3 already decodes mappings
	// into map[string]any, so no json round-trip is needed.
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	return nil
}

// DeltaConfig builds an internal/delta Config from f, filling in
// spec-mandated defaults (the bit-budget constants of spec.md §4.4)
// for anything f leaves at its zero value.
func (f *File) DeltaConfig() delta.Config {
	cfg := delta.DefaultConfig()
	cfg.NumCubes = f.NumCubes

	q := quantize.DefaultConfig()
	if f.UnitsPerMeter > 0 {
		q.UnitsPerMeter = f.UnitsPerMeter
	}
	if f.PositionBoundXY > 0 {
		q.PositionBoundXY = f.PositionBoundXY
	}
	if f.PositionBoundZ > 0 {
		q.PositionBoundZ = f.PositionBoundZ
	}
	if f.OrientationBits > 0 {
		q.OrientationBits = f.OrientationBits
	}
	cfg.Quantize = q
	return cfg
}

// SessionConfig builds an internal/session Config from f, seeding it
// with initial.
func (f *File) SessionConfig(initial *delta.Snapshot) session.Config {
	cfg := session.DefaultConfig()
	cfg.Delta = f.DeltaConfig()
	if f.MaxSnapshots > 0 {
		cfg.MaxSnapshots = f.MaxSnapshots
	}
	if f.PlayoutDelay > 0 {
		cfg.PlayoutDelay = f.PlayoutDelay
	}
	if f.SendRate > 0 {
		cfg.SendRate = f.SendRate
	}
	cfg.DeltaMode = delta.Mode(f.DeltaMode)
	cfg.CompressInitial = f.CompressInitial
	cfg.InitialSnapshot = initial
	return cfg
}

// SimulatorConfig builds an internal/netsim Config and its State
// rotation from f.Simulator.
func (f *File) SimulatorConfig() (netsim.Config, []netsim.State) {
	cfg := netsim.DefaultConfig()
	sim := f.Simulator
	if sim.NumPackets > 0 {
		cfg.NumPackets = sim.NumPackets
	}
	if sim.StateChance > 0 {
		cfg.StateChance = sim.StateChance
	}
	if sim.MaxPacketSize > 0 {
		cfg.MaxPacketSize = sim.MaxPacketSize
	}

	states := make([]netsim.State, len(sim.States))
	for i, s := range sim.States {
		states[i] = netsim.State{Latency: s.Latency, Jitter: s.Jitter, PacketLoss: s.PacketLoss}
	}
	return cfg, states
}
