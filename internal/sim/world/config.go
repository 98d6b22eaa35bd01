package world

import (
	"math"
	"time"
)

type WorldConfig struct {
	// Grid.
	Origin       LatLng
	TileSize     float64
	Start        LatLng
	WindowRadius int

	// Generation. Changing any of these invalidates existing saves.
	// SpawnDensity is the share of cells holding a cache. nil selects the
	// default; zero is a valid value and spawns nothing.
	SpawnSeed    string
	CountSeed    string
	SpawnDensity *float64
	MaxItems     int

	// Operational parameters.
	AutosaveEvery time.Duration
	InboxSize     int
}

func (c *WorldConfig) applyDefaults() {
	if c.TileSize <= 0 {
		c.TileSize = 1e-4
	}
	if c.WindowRadius <= 0 {
		c.WindowRadius = 8
	}
	if c.SpawnSeed == "" {
		c.SpawnSeed = "spawn"
	}
	if c.CountSeed == "" {
		c.CountSeed = "count"
	}
	density := 0.1
	if c.SpawnDensity != nil {
		density = math.Min(math.Max(*c.SpawnDensity, 0), 1)
	}
	c.SpawnDensity = &density
	if c.MaxItems <= 0 {
		c.MaxItems = 3
	}
	if c.AutosaveEvery <= 0 {
		c.AutosaveEvery = 5 * time.Second
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 256
	}
}

func (c WorldConfig) Mapper() Mapper {
	return Mapper{Origin: c.Origin, TileSize: c.TileSize}
}

// Density returns the configured spawn density, or the default when unset.
func (c WorldConfig) Density() float64 {
	if c.SpawnDensity == nil {
		return 0.1
	}
	return *c.SpawnDensity
}

func (c WorldConfig) WorldGen() WorldGen {
	return WorldGen{
		SpawnSeed: c.SpawnSeed,
		CountSeed: c.CountSeed,
		Density:   c.Density(),
		MaxItems:  c.MaxItems,
	}
}
