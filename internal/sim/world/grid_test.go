package world

import "testing"

func TestMapper_ToCell(t *testing.T) {
	m := Mapper{TileSize: 1e-4}
	cases := []struct {
		p    LatLng
		want Cell
	}{
		{LatLng{0, 0}, Cell{0, 0}},
		{LatLng{0.00025, 0.00035}, Cell{2, 3}},
		{LatLng{-0.00005, 0.00005}, Cell{-1, 0}},
		{LatLng{-0.00015, -0.00025}, Cell{-2, -3}},
	}
	for _, c := range cases {
		if got := m.ToCell(c.p); got != c.want {
			t.Fatalf("ToCell(%v)=%v want %v", c.p, got, c.want)
		}
	}
}

func TestMapper_CenterMapsBack(t *testing.T) {
	m := Mapper{Origin: LatLng{Lat: 36.98949379578401, Lng: -122.06277128548504}, TileSize: 1e-4}
	for i := -20; i <= 20; i++ {
		for j := -20; j <= 20; j++ {
			c := Cell{I: i, J: j}
			if got := m.ToCell(m.Center(c)); got != c {
				t.Fatalf("ToCell(Center(%v))=%v", c, got)
			}
		}
	}
}

func TestMapper_SameTileSameCell(t *testing.T) {
	m := Mapper{TileSize: 1}
	a := m.ToCell(LatLng{Lat: 4.1, Lng: -2.9})
	b := m.ToCell(LatLng{Lat: 4.9, Lng: -2.1})
	if a != b || a != (Cell{I: 4, J: -3}) {
		t.Fatalf("expected both in (4,-3), got %v and %v", a, b)
	}
	if m.ToCell(LatLng{Lat: 5.0, Lng: -2.1}) == a {
		t.Fatalf("expected neighbouring tile to differ")
	}
}

func TestMapper_ToPositionIsLowerLeft(t *testing.T) {
	m := Mapper{Origin: LatLng{Lat: 10, Lng: 20}, TileSize: 0.5}
	p := m.ToPosition(Cell{I: 2, J: -4})
	if p.Lat != 11 || p.Lng != 18 {
		t.Fatalf("unexpected corner %v", p)
	}
	c := m.Center(Cell{I: 2, J: -4})
	if c.Lat != 11.25 || c.Lng != 18.25 {
		t.Fatalf("unexpected center %v", c)
	}
}

func TestCellKey(t *testing.T) {
	for _, c := range []Cell{{0, 0}, {2, 3}, {-8, 0}, {-1, -12345}} {
		got, err := ParseCellKey(c.Key())
		if err != nil {
			t.Fatalf("parse %q: %v", c.Key(), err)
		}
		if got != c {
			t.Fatalf("round trip %v -> %q -> %v", c, c.Key(), got)
		}
	}
	if (Cell{1, 23}).Key() == (Cell{12, 3}).Key() {
		t.Fatalf("keys must differ for different cells")
	}
	for _, bad := range []CellKey{"", "1", "a:2", "1:b", "1:2:3"} {
		if _, err := ParseCellKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDirectionOffset(t *testing.T) {
	cases := map[Direction][2]int{
		North: {1, 0},
		South: {-1, 0},
		East:  {0, 1},
		West:  {0, -1},
		"n":   {1, 0},
	}
	for d, want := range cases {
		di, dj, ok := d.Offset()
		if !ok || di != want[0] || dj != want[1] {
			t.Fatalf("%q: got (%d,%d,%v)", d, di, dj, ok)
		}
	}
	if _, _, ok := Direction("UP").Offset(); ok {
		t.Fatalf("expected unknown direction")
	}
}
