package mathx

import (
	"hash/fnv"
	"math"
)

// FloorToInt floors x and converts to int. Callers keep x well inside the int range.
func FloorToInt(x float64) int {
	return int(math.Floor(x))
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Chebyshev is the king-move distance between two grid points.
func Chebyshev(ai, aj, bi, bj int) int {
	di := AbsInt(ai - bi)
	dj := AbsInt(aj - bj)
	if di > dj {
		return di
	}
	return dj
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// HashString mixes an arbitrary key into 64 well-distributed bits.
func HashString(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return mix64(h.Sum64())
}

// Unit maps a 64-bit hash onto [0, 1) using its top 53 bits.
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}
