package world

import (
	"math"

	"geocoin.ai/internal/sim/world/logic/mathx"
)

// Spawner decides whether a cell hosts a cache and how many coins it starts with.
// Implementations must be pure.
type Spawner interface {
	ShouldSpawn(c Cell) bool
	ItemCount(c Cell) int
}

type WorldGen struct {
	SpawnSeed string
	CountSeed string
	Density   float64
	MaxItems  int
}

var _ Spawner = WorldGen{}

// Hash maps (cell, seed) onto [0, 1).
func Hash(c Cell, seed string) float64 {
	return mathx.Unit(mathx.HashString(string(c.Key()) + "|" + seed))
}

func (g WorldGen) ShouldSpawn(c Cell) bool {
	return Hash(c, g.SpawnSeed) < g.Density
}

func (g WorldGen) ItemCount(c Cell) int {
	n := int(math.Ceil(Hash(c, g.CountSeed) * float64(g.MaxItems)))
	if n < 1 {
		n = 1
	}
	return n
}
