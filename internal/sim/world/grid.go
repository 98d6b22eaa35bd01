package world

import (
	"fmt"
	"strconv"
	"strings"

	"geocoin.ai/internal/sim/world/logic/mathx"
)

type LatLng struct {
	Lat float64
	Lng float64
}

// Cell is the discrete grid address of one tile.
type Cell struct {
	I int
	J int
}

// CellKey is the stable string form of a Cell, used by the registry and the persisted store.
type CellKey string

func (c Cell) Key() CellKey {
	return CellKey(strconv.Itoa(c.I) + ":" + strconv.Itoa(c.J))
}

func (c Cell) String() string { return string(c.Key()) }

func (c Cell) Add(di, dj int) Cell { return Cell{I: c.I + di, J: c.J + dj} }

func ParseCellKey(k CellKey) (Cell, error) {
	is, js, ok := strings.Cut(string(k), ":")
	if !ok {
		return Cell{}, fmt.Errorf("bad cell key %q", k)
	}
	i, err := strconv.Atoi(is)
	if err != nil {
		return Cell{}, fmt.Errorf("bad cell key %q: %w", k, err)
	}
	j, err := strconv.Atoi(js)
	if err != nil {
		return Cell{}, fmt.Errorf("bad cell key %q: %w", k, err)
	}
	return Cell{I: i, J: j}, nil
}

func chebyshev(a, b Cell) int {
	return mathx.Chebyshev(a.I, a.J, b.I, b.J)
}

// Mapper converts between geographic positions and grid cells using a linear
// degree-to-tile mapping anchored at Origin.
type Mapper struct {
	Origin   LatLng
	TileSize float64
}

func (m Mapper) ToCell(p LatLng) Cell {
	return Cell{
		I: mathx.FloorToInt((p.Lat - m.Origin.Lat) / m.TileSize),
		J: mathx.FloorToInt((p.Lng - m.Origin.Lng) / m.TileSize),
	}
}

// ToPosition returns the lower-left corner of the cell.
func (m Mapper) ToPosition(c Cell) LatLng {
	return LatLng{
		Lat: m.Origin.Lat + float64(c.I)*m.TileSize,
		Lng: m.Origin.Lng + float64(c.J)*m.TileSize,
	}
}

func (m Mapper) Center(c Cell) LatLng {
	p := m.ToPosition(c)
	p.Lat += m.TileSize / 2
	p.Lng += m.TileSize / 2
	return p
}

// Snap moves a position to the center of the cell containing it.
func (m Mapper) Snap(p LatLng) (Cell, LatLng) {
	c := m.ToCell(p)
	return c, m.Center(c)
}

type Direction string

const (
	North Direction = "N"
	South Direction = "S"
	East  Direction = "E"
	West  Direction = "W"
)

// Offset returns the cell delta of one step. Lat grows north, lng grows east.
func (d Direction) Offset() (di, dj int, ok bool) {
	switch Direction(strings.ToUpper(string(d))) {
	case North:
		return 1, 0, true
	case South:
		return -1, 0, true
	case East:
		return 0, 1, true
	case West:
		return 0, -1, true
	default:
		return 0, 0, false
	}
}
