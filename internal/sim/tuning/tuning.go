package tuning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world"
)

type Tuning struct {
	// ProtocolVersion pins the display protocol the file was written for.
	ProtocolVersion string `yaml:"protocol_version"`

	TileSize     float64 `yaml:"tile_size"     env:"GEOCOIN_TILE_SIZE"`
	Origin       LatLng  `yaml:"origin"`
	Start        LatLng  `yaml:"start"`
	WindowRadius int     `yaml:"window_radius" env:"GEOCOIN_WINDOW_RADIUS"`

	SpawnSeed    string  `yaml:"spawn_seed"    env:"GEOCOIN_SPAWN_SEED"`
	CountSeed    string  `yaml:"count_seed"    env:"GEOCOIN_COUNT_SEED"`
	SpawnDensity float64 `yaml:"spawn_density" env:"GEOCOIN_SPAWN_DENSITY"`
	MaxItems     int     `yaml:"max_items"     env:"GEOCOIN_MAX_ITEMS"`

	AutosaveEveryMs int `yaml:"autosave_every_ms" env:"GEOCOIN_AUTOSAVE_EVERY_MS"`
	InboxSize       int `yaml:"inbox_size"        env:"GEOCOIN_INBOX_SIZE"`
}

type LatLng struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// startEnv lets a deployment pin the start position without editing the file.
type startEnv struct {
	Lat *float64 `env:"GEOCOIN_START_LAT"`
	Lng *float64 `env:"GEOCOIN_START_LNG"`
}

// Defaults places the grid origin at Null Island and starts the player there.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: protocol.Version,
		TileSize:        1e-4,
		WindowRadius:    8,
		SpawnSeed:       "spawn",
		CountSeed:       "count",
		SpawnDensity:    0.1,
		MaxItems:        3,
		AutosaveEveryMs: 5000,
		InboxSize:       256,
	}
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, t.Validate()
}

// ApplyEnv overrides fields from GEOCOIN_* variables.
func (t *Tuning) ApplyEnv() error {
	if err := env.Parse(t); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	var s startEnv
	if err := env.Parse(&s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if s.Lat != nil {
		t.Start.Lat = *s.Lat
	}
	if s.Lng != nil {
		t.Start.Lng = *s.Lng
	}
	return t.Validate()
}

func (t Tuning) Validate() error {
	switch {
	case t.ProtocolVersion != protocol.Version:
		return fmt.Errorf("tuning: protocol_version %q does not match server %q", t.ProtocolVersion, protocol.Version)
	case t.TileSize <= 0:
		return fmt.Errorf("tuning: tile_size must be positive")
	case t.WindowRadius <= 0:
		return fmt.Errorf("tuning: window_radius must be positive")
	case t.SpawnDensity < 0 || t.SpawnDensity > 1:
		return fmt.Errorf("tuning: spawn_density must be within [0,1]")
	case t.MaxItems <= 0:
		return fmt.Errorf("tuning: max_items must be positive")
	}
	return nil
}

func (t Tuning) WorldConfig() world.WorldConfig {
	density := t.SpawnDensity
	return world.WorldConfig{
		Origin:        world.LatLng{Lat: t.Origin.Lat, Lng: t.Origin.Lng},
		TileSize:      t.TileSize,
		Start:         world.LatLng{Lat: t.Start.Lat, Lng: t.Start.Lng},
		WindowRadius:  t.WindowRadius,
		SpawnSeed:     t.SpawnSeed,
		CountSeed:     t.CountSeed,
		SpawnDensity:  &density,
		MaxItems:      t.MaxItems,
		AutosaveEvery: time.Duration(t.AutosaveEveryMs) * time.Millisecond,
		InboxSize:     t.InboxSize,
	}
}
