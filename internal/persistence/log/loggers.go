package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"geocoin.ai/internal/sim/world"
)

const hourLayout = "2006-01-02-15"

// AuditLogger is the on-disk audit journal. Entries are JSON lines in hourly
// zstd files under <dataDir>/audit, bucketed by the entry's own UTC time.
// Each entry is flushed as a zstd block, so an acknowledged write survives a
// crash. Reopening an hour appends a new frame to the same file.
type AuditLogger struct {
	dir string

	mu   sync.Mutex
	hour string
	f    *os.File
	enc  *zstd.Encoder
}

var _ world.AuditLogger = (*AuditLogger)(nil)

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{dir: filepath.Join(dataDir, "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	hour := ts.UTC().Format(hourLayout)

	l.mu.Lock()
	defer l.mu.Unlock()
	if hour != l.hour || l.enc == nil {
		if err := l.openLocked(hour); err != nil {
			return err
		}
	}
	if _, err := l.enc.Write(b); err != nil {
		return fmt.Errorf("audit %s: %w", hour, err)
	}
	return l.enc.Flush()
}

func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *AuditLogger) openLocked(hour string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(auditPath(l.dir, hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f, l.enc, l.hour = f, enc, hour
	return nil
}

func (l *AuditLogger) closeLocked() error {
	var errEnc, errFile error
	if l.enc != nil {
		errEnc = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		errFile = l.f.Close()
		l.f = nil
	}
	l.hour = ""
	return errors.Join(errEnc, errFile)
}

func auditPath(dir, hour string) string {
	return filepath.Join(dir, "audit-"+hour+".jsonl.zst")
}

// AuditFiles lists the journal files under dataDir, oldest first.
func AuditFiles(dataDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "audit", "audit-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadAuditFile decodes every entry of one hourly audit file.
func ReadAuditFile(path string) ([]world.AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []world.AuditEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e world.AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("decode audit line %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
