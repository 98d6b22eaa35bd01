package world

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"geocoin.ai/internal/protocol"
)

type CommandKind string

const (
	CmdMove       CommandKind = protocol.TypeMove
	CmdMoveTo     CommandKind = protocol.TypeMoveTo
	CmdOpenCache  CommandKind = protocol.TypeOpenCache
	CmdCloseCache CommandKind = protocol.TypeCloseCache
	CmdInteract   CommandKind = protocol.TypeInteract
	CmdReset      CommandKind = protocol.TypeReset
)

// Command is one display intent. ClientID selects who receives errors.
type Command struct {
	ClientID  string
	Kind      CommandKind
	Direction Direction
	Position  LatLng
	Cell      Cell
	Index     int
	Action    string

	// Invalid carries a decode failure; Apply rejects the command with it.
	Invalid string
}

type AttachRequest struct {
	ClientID string
	Out      chan []byte
	Resp     chan protocol.WelcomeMsg
}

type clientState struct {
	Out chan []byte
}

// Run is the world's single logical thread. Commands are applied one at a
// time in arrival order; autosave runs between commands.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.AutosaveEvery)
	defer ticker.Stop()
	w.publishMetrics(0)

	for {
		var start time.Time
		select {
		case <-ctx.Done():
			w.autosave()
			return ctx.Err()
		case <-w.stop:
			w.autosave()
			return nil
		case req := <-w.attach:
			start = time.Now()
			w.handleAttach(req)
		case id := <-w.leave:
			start = time.Now()
			w.handleLeave(id)
		case req := <-w.admin:
			start = time.Now()
			w.handleAdminSave(req)
		case cmd := <-w.inbox:
			start = time.Now()
			w.handleCommand(cmd)
		case <-ticker.C:
			start = time.Now()
			w.autosave()
		}
		w.publishMetrics(time.Since(start))
	}
}

// Apply executes a command synchronously.
func (w *World) Apply(cmd Command) ([]Event, error) {
	if cmd.Invalid != "" {
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, cmd.Invalid)
	}
	switch cmd.Kind {
	case CmdMove:
		return w.Move(cmd.Direction)
	case CmdMoveTo:
		return w.MoveTo(cmd.Position)
	case CmdOpenCache:
		return w.OpenCache(cmd.Cell)
	case CmdCloseCache:
		w.CloseCache()
		return nil, nil
	case CmdInteract:
		return w.Interact(cmd.Cell, cmd.Index, cmd.Action)
	case CmdReset:
		return w.Reset()
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrBadRequest, cmd.Kind)
	}
}

func (w *World) handleCommand(cmd Command) {
	w.stats.commands++
	events, err := w.Apply(cmd)
	if len(events) > 0 {
		w.broadcast(events)
	}
	if err == nil {
		return
	}
	w.stats.rejected++
	entry := w.log.WithError(err).WithField("command", string(cmd.Kind))
	if Recoverable(err) {
		entry.Debug("command rejected")
	} else {
		entry.Error("command failed")
	}
	if cl := w.clients[cmd.ClientID]; cl != nil {
		b, _ := json.Marshal(protocol.ErrorMsg{
			Type:            protocol.TypeError,
			ProtocolVersion: protocol.Version,
			Code:            CodeOf(err),
			Message:         err.Error(),
		})
		w.send(cmd.ClientID, cl, b)
	}
}

func (w *World) handleAttach(req AttachRequest) {
	if req.Out == nil || req.ClientID == "" {
		if req.Resp != nil {
			close(req.Resp)
		}
		return
	}
	w.clients[req.ClientID] = &clientState{Out: req.Out}
	if req.Resp != nil {
		req.Resp <- w.buildWelcome(req.ClientID)
	}
}

func (w *World) handleLeave(id string) {
	delete(w.clients, id)
}

func (w *World) clientIDs() []string {
	ids := make([]string, 0, len(w.clients))
	for id := range w.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) broadcast(events []Event) {
	w.seq++
	b, err := json.Marshal(protocol.EventsMsg{
		Type:            protocol.TypeEvents,
		ProtocolVersion: protocol.Version,
		Seq:             w.seq,
		Events:          encodeEvents(events),
	})
	if err != nil {
		w.log.WithError(err).Error("encode events")
		return
	}
	for _, id := range w.clientIDs() {
		w.send(id, w.clients[id], b)
	}
}

// send never blocks the loop. Event batches are deltas, so a client that
// cannot keep up is detached; it gets a fresh WELCOME on reconnect.
func (w *World) send(id string, cl *clientState, b []byte) {
	select {
	case cl.Out <- b:
	default:
		w.log.WithField("client_id", id).Warn("client queue full; detaching")
		w.stats.detached++
		delete(w.clients, id)
		close(cl.Out)
	}
}

func (w *World) autosave() {
	if w.session == nil || !w.NeedsSave() {
		return
	}
	if err := w.save(); err != nil {
		w.log.WithError(err).Error("autosave failed")
		return
	}
	w.log.Debug("autosaved")
}

func (w *World) save() error {
	if err := w.Save(w.session); err != nil {
		w.stats.saveErrors++
		return err
	}
	w.stats.saves++
	w.stats.lastSave = w.now()
	return nil
}
