package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Version is the current save format version.
const Version = 1

var ErrUnsupportedVersion = errors.New("unsupported save version")

type CellV1 struct {
	I int `json:"i"`
	J int `json:"j"`
}

type LatLngV1 struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ItemV1 is the memento of a single coin.
type ItemV1 struct {
	OriginCell  CellV1 `json:"originCell"`
	Serial      int    `json:"serial"`
	CurrentCell CellV1 `json:"currentCell"`
	InInventory bool   `json:"inInventory"`
}

// CacheV1 is a persisted store entry. Items may be empty but is never nil on encode.
type CacheV1 struct {
	Key   string   `json:"key"`
	Items []ItemV1 `json:"items"`
}

type SaveV1 struct {
	Version         int        `json:"version"`
	Inventory       []ItemV1   `json:"inventory"`
	PersistedCaches []CacheV1  `json:"persistedCaches"`
	PlayerPosition  LatLngV1   `json:"playerPosition"`
	PathHistory     []LatLngV1 `json:"pathHistory"`
}

type Header struct {
	Version int `json:"version"`
	Caches  int `json:"caches"`
	Items   int `json:"items"`
}

func (s SaveV1) Header() Header {
	n := len(s.Inventory)
	for _, c := range s.PersistedCaches {
		n += len(c.Items)
	}
	return Header{Version: s.Version, Caches: len(s.PersistedCaches), Items: n}
}

func EncodeItem(it ItemV1) (string, error) {
	b, err := json.Marshal(it)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeItem(s string) (ItemV1, error) {
	var it ItemV1
	if err := json.Unmarshal([]byte(s), &it); err != nil {
		return it, fmt.Errorf("decode item: %w", err)
	}
	return it, nil
}

// Marshal renders a save as the JSON blob handed to session stores.
func Marshal(s SaveV1) (string, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	if s.Inventory == nil {
		s.Inventory = []ItemV1{}
	}
	caches := make([]CacheV1, len(s.PersistedCaches))
	copy(caches, s.PersistedCaches)
	for i := range caches {
		if caches[i].Items == nil {
			caches[i].Items = []ItemV1{}
		}
	}
	s.PersistedCaches = caches
	if s.PathHistory == nil {
		s.PathHistory = []LatLngV1{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func Unmarshal(blob string) (SaveV1, error) {
	var s SaveV1
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return s, fmt.Errorf("decode save: %w", err)
	}
	if s.Version != Version {
		return s, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	return s, nil
}

func WriteFile(path string, s SaveV1) error {
	blob, err := Marshal(s)
	if err != nil {
		return err
	}
	return WriteBlob(path, s.Header(), blob)
}

func ReadFile(path string) (SaveV1, error) {
	blob, err := ReadBlob(path)
	if err != nil {
		return SaveV1{}, err
	}
	return Unmarshal(blob)
}

// WriteBlob writes a zstd frame holding a JSON header line followed by the blob.
// The file is written next to path and renamed into place.
func WriteBlob(path string, h Header, blob string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := writeFramed(f, h, blob); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeFramed(w io.Writer, h Header, blob string) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.WriteString(blob); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadBlob(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return "", err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is informational; the blob carries its own version.
	if _, err := br.ReadBytes('\n'); err != nil {
		return "", fmt.Errorf("read header: %w", err)
	}
	b, err := io.ReadAll(br)
	if err != nil {
		return "", fmt.Errorf("zstd decode: %w", err)
	}
	return string(b), nil
}

// ReadHeader returns only the header line of a save file.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
