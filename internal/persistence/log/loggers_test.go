package log

import (
	"path/filepath"
	"testing"
	"time"

	"geocoin.ai/internal/sim/world"
)

func TestAuditLogger_BucketsByEntryHour(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	at := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)

	if err := l.WriteAudit(world.AuditEntry{Time: at, Action: "COLLECT", Item: "2:3#1", From: "2:3"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteAudit(world.AuditEntry{Time: at, Action: "DROP", Item: "2:3#1", To: "5:5"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteAudit(world.AuditEntry{Time: at.Add(2 * time.Minute), Action: "RESET"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	first, err := ReadAuditFile(filepath.Join(dir, "audit", "audit-2024-05-01-10.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(first) != 2 || first[0].Action != "COLLECT" || first[1].To != "5:5" {
		t.Fatalf("unexpected first hour %+v", first)
	}
	second, err := ReadAuditFile(filepath.Join(dir, "audit", "audit-2024-05-01-11.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(second) != 1 || second[0].Action != "RESET" {
		t.Fatalf("unexpected second hour %+v", second)
	}

	files, err := AuditFiles(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("expected 2 journal files, got %v (%v)", files, err)
	}
}

func TestAuditLogger_ReopenAppends(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, action := range []string{"COLLECT", "DROP"} {
		l := NewAuditLogger(dir)
		if err := l.WriteAudit(world.AuditEntry{Time: at, Action: action}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	got, err := ReadAuditFile(filepath.Join(dir, "audit", "audit-2024-05-01-09.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Action != "COLLECT" || got[1].Action != "DROP" {
		t.Fatalf("unexpected entries %+v", got)
	}
}
