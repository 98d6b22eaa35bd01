package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world"
)

// Server bridges display clients to the world loop. Every client sees the
// same single-player game; commands from any of them are applied in order.
type Server struct {
	world *world.World
	log   logrus.FieldLogger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		world: w,
		log:   logger.WithField("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, out := s.handshake(r.Context(), conn)
		if clientID == "" {
			return
		}
		log := s.log.WithField("client_id", clientID)
		log.Info("client attached")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. The world closes out when it detaches us.
		go func() {
			defer conn.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "queue overflow"), time.Now().Add(time.Second))
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			cmd, ok := decodeCommand(clientID, msg)
			if !ok {
				continue
			}
			select {
			case s.world.Inbox() <- cmd:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		select {
		case s.world.Leave() <- clientID:
		case <-time.After(time.Second):
		}
		log.Info("client left")
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (clientID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 32
	}
	if maxQ > 256 {
		maxQ = 256
	}
	out = make(chan []byte, maxQ)
	clientID = uuid.NewString()

	respCh := make(chan protocol.WelcomeMsg, 1)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	select {
	case s.world.Attach() <- world.AttachRequest{ClientID: clientID, Out: out, Resp: respCh}:
	case <-ctx.Done():
		return "", nil
	}
	var welcome protocol.WelcomeMsg
	select {
	case w, ok := <-respCh:
		if !ok {
			return "", nil
		}
		welcome = w
	case <-ctx.Done():
		return "", nil
	}

	// The writer goroutine is not running yet, so writing here is safe.
	if err := writeJSON(conn, welcome); err != nil {
		select {
		case s.world.Leave() <- clientID:
		case <-ctx.Done():
		}
		return "", nil
	}
	return clientID, out
}

// decodeCommand turns one client frame into a world command. Frames that are
// not commands at all are dropped; malformed commands are forwarded as
// invalid so the client gets an ERROR back in order.
func decodeCommand(clientID string, msg []byte) (world.Command, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return world.Command{ClientID: clientID, Invalid: "malformed json"}, true
	}
	if base.Type == protocol.TypeHello {
		return world.Command{}, false
	}
	cmd := world.Command{ClientID: clientID, Kind: world.CommandKind(base.Type)}
	if !protocol.IsCommand(base.Type) {
		cmd.Invalid = "unknown message type " + base.Type
		return cmd, true
	}

	var m protocol.CommandMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		cmd.Invalid = "malformed " + base.Type
		return cmd, true
	}
	if m.ProtocolVersion != protocol.Version {
		cmd.Invalid = "bad protocol_version"
		return cmd, true
	}
	cmd.Direction = world.Direction(m.Direction)
	cmd.Index = m.Index
	cmd.Action = m.Action
	if m.Cell != nil {
		cmd.Cell = world.Cell{I: m.Cell.I, J: m.Cell.J}
	}
	if m.Position != nil {
		cmd.Position = world.LatLng{Lat: m.Position.Lat, Lng: m.Position.Lng}
	}

	switch base.Type {
	case protocol.TypeMoveTo:
		if m.Position == nil {
			cmd.Invalid = "MOVE_TO needs position"
		}
	case protocol.TypeOpenCache, protocol.TypeInteract:
		if m.Cell == nil {
			cmd.Invalid = base.Type + " needs cell"
		}
	}
	return cmd, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
