package world

import "time"

type AuditEntry struct {
	Time   time.Time `json:"ts"`
	Action string    `json:"action"`
	Item   string    `json:"item,omitempty"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

func (w *World) auditf(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	e.Time = w.now().UTC()
	if err := w.auditLogger.WriteAudit(e); err != nil {
		w.log.WithError(err).Warn("audit write failed")
	}
}
