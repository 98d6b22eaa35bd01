package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	persistlog "geocoin.ai/internal/persistence/log"
	"geocoin.ai/internal/persistence/savedb"
	"geocoin.ai/internal/persistence/session"
	"geocoin.ai/internal/sim/world"
)

type backend struct {
	kind    string
	cells   world.CellStore
	session world.SessionStore
	audit   world.AuditLogger
	closers []func() error
}

func openBackend(kind, dataDir, slot string) (*backend, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	be := &backend{kind: kind}

	switch kind {
	case "memory":
		be.cells = world.NewMemoryCellStore()
		be.session = session.NewMemoryStore()
		return be, nil
	case "", "file":
		be.kind = "file"
		be.cells = world.NewMemoryCellStore()
		be.session = session.NewFileStore(filepath.Join(dataDir, "saves", slot+".save.zst"))
		auditLog := persistlog.NewAuditLogger(dataDir)
		be.audit = auditLog
		be.closers = append(be.closers, auditLog.Close)
		return be, nil
	case "sqlite":
		db, err := savedb.Open(filepath.Join(dataDir, "geocoin.sqlite"))
		if err != nil {
			return nil, err
		}
		auditLog := persistlog.NewAuditLogger(dataDir)
		be.cells = db.CellStore()
		be.session = db.SessionStore(slot)
		be.audit = multiAuditLogger{a: auditLog, b: db}
		be.closers = append(be.closers, auditLog.Close, db.Close)
		return be, nil
	default:
		return nil, fmt.Errorf("unsupported store %q", kind)
	}
}

// Close is idempotent.
func (b *backend) Close() {
	for _, c := range b.closers {
		_ = c()
	}
	b.closers = nil
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

// WriteAudit writes to both sinks even when one fails.
func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	var errA, errB error
	if m.a != nil {
		errA = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		errB = m.b.WriteAudit(entry)
	}
	return errors.Join(errA, errB)
}
