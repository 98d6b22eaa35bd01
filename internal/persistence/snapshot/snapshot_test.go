package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleSave() SaveV1 {
	return SaveV1{
		Version: Version,
		Inventory: []ItemV1{
			{OriginCell: CellV1{I: 2, J: 3}, Serial: 1, CurrentCell: CellV1{I: 2, J: 3}, InInventory: true},
		},
		PersistedCaches: []CacheV1{
			{Key: "2:3", Items: []ItemV1{
				{OriginCell: CellV1{I: 2, J: 3}, Serial: 0, CurrentCell: CellV1{I: 2, J: 3}},
				{OriginCell: CellV1{I: 2, J: 3}, Serial: 2, CurrentCell: CellV1{I: 2, J: 3}},
			}},
			{Key: "-4:7", Items: []ItemV1{}},
		},
		PlayerPosition: LatLngV1{Lat: 0.00025, Lng: 0.00035},
		PathHistory:    []LatLngV1{{Lat: 0.00005, Lng: 0.00005}, {Lat: 0.00025, Lng: 0.00035}},
	}
}

func TestItemMementoRoundTrip(t *testing.T) {
	cases := []ItemV1{
		{},
		{OriginCell: CellV1{I: 2, J: 3}, Serial: 1, CurrentCell: CellV1{I: 5, J: 5}},
		{OriginCell: CellV1{I: -9, J: 0}, Serial: 17, CurrentCell: CellV1{I: -9, J: 0}, InInventory: true},
	}
	for _, in := range cases {
		s, err := EncodeItem(in)
		if err != nil {
			t.Fatalf("encode %+v: %v", in, err)
		}
		out, err := DecodeItem(s)
		if err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		if out != in {
			t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
		}
	}
}

func TestDecodeItemRejectsGarbage(t *testing.T) {
	if _, err := DecodeItem("{not json"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	in := sampleSave()
	blob, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("mismatch:\n%+v\n%+v", in, out)
	}
}

func TestMarshalFillsEmptyLists(t *testing.T) {
	blob, err := Marshal(SaveV1{PersistedCaches: []CacheV1{{Key: "0:0"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"version":1,"inventory":[],"persistedCaches":[{"key":"0:0","items":[]}],"playerPosition":{"lat":0,"lng":0},"pathHistory":[]}`
	if blob != want {
		t.Fatalf("unexpected blob:\n%s\nwant\n%s", blob, want)
	}
}

func TestUnmarshalRejectsUnknownVersion(t *testing.T) {
	_, err := Unmarshal(`{"version":9,"inventory":[],"persistedCaches":[],"playerPosition":{"lat":0,"lng":0},"pathHistory":[]}`)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if _, err := Unmarshal(""); err == nil {
		t.Fatalf("expected error for empty blob")
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "save.json.zst")
	in := sampleSave()
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected tmp file renamed away, stat err=%v", err)
	}
	out, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("mismatch:\n%+v\n%+v", in, out)
	}
	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.Version != Version || h.Caches != 2 || h.Items != 3 {
		t.Fatalf("unexpected header: %+v", h)
	}
}
