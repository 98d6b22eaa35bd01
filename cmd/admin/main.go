package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	persistlog "geocoin.ai/internal/persistence/log"
	"geocoin.ai/internal/persistence/savedb"
	"geocoin.ai/internal/persistence/session"
	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/sim/world"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	args := os.Args[2:]
	switch os.Args[1] {
	case "stats":
		statsCmd(args)
	case "dump":
		dumpCmd(args)
	case "verify":
		verifyCmd(args)
	case "reset":
		resetCmd(args)
	case "audit":
		auditCmd(args)
	case "state":
		stateCmd(args)
	case "save":
		saveCmd(args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <stats|dump|verify|reset|audit|state|save> [flags]")
}

// source selects a save: a zstd save file, or a slot in the sqlite database.
type source struct {
	file *string
	db   *string
	slot *string
}

func sourceFlags(fs *flag.FlagSet) source {
	return source{
		file: fs.String("file", "./data/saves/default.save.zst", "save file (file backend)"),
		db:   fs.String("db", "", "sqlite db path (sqlite backend; overrides -file)"),
		slot: fs.String("slot", "default", "save slot (sqlite backend)"),
	}
}

func (s source) describe() string {
	if strings.TrimSpace(*s.db) != "" {
		return fmt.Sprintf("%s#%s", *s.db, *s.slot)
	}
	return *s.file
}

func (s source) load() (string, error) {
	var (
		blob string
		ok   bool
		err  error
	)
	if path := strings.TrimSpace(*s.db); path != "" {
		db, oerr := savedb.Open(path)
		if oerr != nil {
			return "", oerr
		}
		defer db.Close()
		blob, ok, err = db.SessionStore(*s.slot).Load()
	} else {
		blob, ok, err = session.NewFileStore(*s.file).Load()
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no save at %s", s.describe())
	}
	return blob, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

type summary struct {
	Version     int               `json:"version"`
	Caches      int               `json:"caches"`
	EmptyCaches int               `json:"empty_caches"`
	Items       int               `json:"items"`
	Inventory   int               `json:"inventory"`
	Moved       int               `json:"moved_items"`
	PathLen     int               `json:"path_len"`
	Position    snapshot.LatLngV1 `json:"position"`
	Header      snapshot.Header   `json:"header"`
}

func summarize(s snapshot.SaveV1) summary {
	sum := summary{
		Version:   s.Version,
		Caches:    len(s.PersistedCaches),
		Inventory: len(s.Inventory),
		PathLen:   len(s.PathHistory),
		Position:  s.PlayerPosition,
		Header:    s.Header(),
	}
	sum.Items = sum.Header.Items
	for _, c := range s.PersistedCaches {
		if len(c.Items) == 0 {
			sum.EmptyCaches++
		}
		for _, it := range c.Items {
			if it.OriginCell != it.CurrentCell {
				sum.Moved++
			}
		}
	}
	return sum
}

func statsCmd(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	src := sourceFlags(fs)
	_ = fs.Parse(args)

	blob, err := src.load()
	if err != nil {
		fail("load: %v", err)
	}
	s, err := snapshot.Unmarshal(blob)
	if err != nil {
		fail("decode: %v", err)
	}
	b, _ := json.MarshalIndent(summarize(s), "", "  ")
	fmt.Println(string(b))
}

func dumpCmd(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	src := sourceFlags(fs)
	_ = fs.Parse(args)

	blob, err := src.load()
	if err != nil {
		fail("load: %v", err)
	}
	var v any
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		fail("decode: %v", err)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// verifyBlob imports blob into a scratch world and checks the coin invariants.
func verifyBlob(blob string, cfg world.WorldConfig) (snapshot.Header, error) {
	s, err := snapshot.Unmarshal(blob)
	if err != nil {
		return snapshot.Header{}, fmt.Errorf("%w: %v", world.ErrDeserialization, err)
	}
	w, err := world.New(cfg, nil)
	if err != nil {
		return s.Header(), err
	}
	if _, err := w.ImportSave(s); err != nil {
		return s.Header(), err
	}
	if err := w.CheckInvariants(); err != nil {
		return s.Header(), err
	}
	return s.Header(), nil
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	src := sourceFlags(fs)
	tuningPath := fs.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
	_ = fs.Parse(args)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fail("load tuning: %v", err)
	}
	blob, err := src.load()
	if err != nil {
		fail("load: %v", err)
	}
	h, err := verifyBlob(blob, tune.WorldConfig())
	if err != nil {
		if errors.Is(err, world.ErrDeserialization) {
			fail("INVALID %s: %v", src.describe(), err)
		}
		fail("verify: %v", err)
	}
	fmt.Printf("OK %s caches=%d items=%d\n", src.describe(), h.Caches, h.Items)
}

func resetCmd(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	src := sourceFlags(fs)
	yes := fs.Bool("yes", false, "confirm deletion")
	_ = fs.Parse(args)

	if !*yes {
		fmt.Fprintf(os.Stderr, "refusing to delete %s without -yes\n", src.describe())
		os.Exit(2)
	}
	if path := strings.TrimSpace(*src.db); path != "" {
		db, err := savedb.Open(path)
		if err != nil {
			fail("open: %v", err)
		}
		defer db.Close()
		if err := db.SessionStore(*src.slot).Delete(); err != nil {
			fail("delete slot: %v", err)
		}
		if err := db.CellStore().Reset(); err != nil {
			fail("clear cells: %v", err)
		}
	} else if err := os.Remove(*src.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		fail("remove: %v", err)
	}
	fmt.Printf("reset %s\n", src.describe())
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory (reads <data>/audit/*.jsonl.zst)")
	dbPath := fs.String("db", "", "read the audits table of this sqlite db instead")
	limit := fs.Int("limit", 50, "result limit (db only)")
	_ = fs.Parse(args)

	enc := json.NewEncoder(os.Stdout)
	if path := strings.TrimSpace(*dbPath); path != "" {
		db, err := savedb.Open(path)
		if err != nil {
			fail("open: %v", err)
		}
		defer db.Close()
		rows, err := db.Audits(*limit)
		if err != nil {
			fail("query: %v", err)
		}
		for _, r := range rows {
			_ = enc.Encode(r.AuditEntry)
		}
		return
	}

	files, err := persistlog.AuditFiles(*dataDir)
	if err != nil {
		fail("list audit files: %v", err)
	}
	for _, f := range files {
		entries, err := persistlog.ReadAuditFile(f)
		if err != nil {
			fail("read %s: %v", f, err)
		}
		for _, e := range entries {
			_ = enc.Encode(e)
		}
	}
}
