package world

import (
	"time"

	"github.com/sirupsen/logrus"
)

func (w *World) SetLogger(l logrus.FieldLogger) { w.log = l.WithField("component", "world") }
func (w *World) SetAuditLogger(l AuditLogger)   { w.auditLogger = l }
func (w *World) SetSessionStore(s SessionStore) { w.session = s }
func (w *World) SetClock(now func() time.Time)  { w.now = now }

// SetSpawner replaces the generator. Only valid before the first Reset/Restore.
func (w *World) SetSpawner(s Spawner) { w.registry.gen = s }

func (w *World) Inbox() chan<- Command        { return w.inbox }
func (w *World) Attach() chan<- AttachRequest { return w.attach }
func (w *World) Leave() chan<- string         { return w.leave }
func (w *World) Stop()                        { w.stopOnce.Do(func() { close(w.stop) }) }
