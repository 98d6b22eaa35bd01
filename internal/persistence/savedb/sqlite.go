// Package savedb keeps saves, the persisted cell store and the audit trail in
// a single SQLite file.
package savedb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"geocoin.ai/internal/sim/world"
)

type DB struct {
	db *sql.DB

	audits chan world.AuditEntry
	wg     sync.WaitGroup
	once   sync.Once

	closed       atomic.Bool
	droppedAudit atomic.Uint64
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &DB{
		db:     db,
		audits: make(chan world.AuditEntry, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.auditLoop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			blob TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cells (
			key TEXT PRIMARY KEY,
			items TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			action TEXT NOT NULL,
			item TEXT,
			from_cell TEXT,
			to_cell TEXT,
			reason TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_item ON audits(item, id);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.audits)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

var ErrAuditQueueFull = errors.New("audit queue full")

// WriteAudit queues an entry for the writer goroutine. Entries are dropped
// and counted when the queue is full; the world never waits on the disk.
func (s *DB) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.audits <- entry:
		return nil
	default:
		s.droppedAudit.Add(1)
		return ErrAuditQueueFull
	}
}

func (s *DB) DroppedAudits() uint64 { return s.droppedAudit.Load() }

func (s *DB) auditLoop() {
	insert, err := s.db.Prepare(`INSERT INTO audits(ts,action,item,from_cell,to_cell,reason) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		for range s.audits {
			s.droppedAudit.Add(1)
		}
		return
	}
	defer insert.Close()

	var (
		tx          *sql.Tx
		pending     int
		lastCommit  = time.Now()
		commitEvery = 500
		maxWait     = time.Second
	)
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		pending = 0
		lastCommit = time.Now()
	}

	for a := range s.audits {
		if tx == nil {
			txx, err := s.db.Begin()
			if err != nil {
				s.droppedAudit.Add(1)
				continue
			}
			tx = txx
		}
		if _, err := tx.Stmt(insert).Exec(
			a.Time.UTC().Format(time.RFC3339Nano),
			a.Action,
			a.Item,
			a.From,
			a.To,
			a.Reason,
		); err != nil {
			_ = tx.Rollback()
			tx = nil
			s.droppedAudit.Add(uint64(pending) + 1)
			pending = 0
			continue
		}
		pending++
		if pending >= commitEvery || time.Since(lastCommit) >= maxWait || len(s.audits) == 0 {
			commit()
		}
	}
	commit()
}

// AuditRow is one stored audit entry.
type AuditRow struct {
	ID int64
	world.AuditEntry
}

// Audits returns the most recent entries, newest first.
func (s *DB) Audits(limit int) ([]AuditRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT id,ts,action,COALESCE(item,''),COALESCE(from_cell,''),COALESCE(to_cell,''),COALESCE(reason,'') FROM audits ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var r AuditRow
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.Action, &r.Item, &r.From, &r.To, &r.Reason); err != nil {
			return nil, err
		}
		r.Time, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}
