package realtime

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-activity/internal/auth"
	"github.com/spec-kit/ticket-activity/internal/config"
	"github.com/spec-kit/ticket-activity/internal/events"
)

const maxClientMessageSize = 4096

// clientMessage is an inbound frame. Only room control events are accepted from clients.
type clientMessage struct {
	Event events.Name     `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SocketServer upgrades authenticated HTTP requests to websocket connections and
// bridges them to the Registry.
type SocketServer struct {
	registry *Registry
	tokens   *auth.TokenManager
	cfg      config.SocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSocketServer builds the websocket endpoint.
func NewSocketServer(registry *Registry, tokens *auth.TokenManager, cfg config.SocketConfig, logger *zap.Logger) *SocketServer {
	s := &SocketServer{
		registry: registry,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// Close ends every live connection. Hijacked connections are not closed by http.Server.Shutdown.
func (s *SocketServer) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// ServeHTTP implements the http.Handler interface.
func (s *SocketServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	principal, err := s.authenticate(req)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	socket, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer socket.Close()

	conn := NewConn(uuid.NewString(), principal.UserID, s.cfg.SendQueueSize)
	s.registry.Register(conn)
	defer func() {
		s.registry.Unregister(conn.ID())
		conn.Close()
	}()

	logger := s.logger.With(zap.String("conn_id", conn.ID()), zap.Int64("user_id", conn.UserID()))
	logger.Debug("socket connected")

	pongDelay := s.cfg.PongTimeout()
	writeWait := s.cfg.WriteTimeout()
	socket.SetReadLimit(maxClientMessageSize)
	socket.SetReadDeadline(time.Now().Add(pongDelay))
	socket.SetPongHandler(func(string) error {
		socket.SetReadDeadline(time.Now().Add(pongDelay))
		return nil
	})
	ticker := time.NewTicker(pongDelay * 9 / 10)
	defer ticker.Stop()

	messageCh := s.receiveMessages(socket, conn, logger)
	for {
		select {
		case <-s.stop:
			s.writeClose(socket, websocket.CloseGoingAway, writeWait)
			return
		case <-conn.Done():
			// Closed by the hub after a queue overflow.
			s.writeClose(socket, websocket.ClosePolicyViolation, writeWait)
			logger.Debug("socket closed by server")
			return
		case frame := <-conn.Outbound():
			socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := socket.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("socket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := socket.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				logger.Debug("failed to write ping", zap.Error(err))
				return
			}
		case m, ok := <-messageCh:
			if !ok {
				logger.Debug("socket disconnected")
				return
			}
			s.handleControl(conn, m)
		}
	}
}

// receiveMessages reads client frames until the socket fails. The reader also exits once conn
// is closed, which ServeHTTP does on every return path.
func (s *SocketServer) receiveMessages(socket *websocket.Conn, conn *Conn, logger *zap.Logger) <-chan clientMessage {
	messageCh := make(chan clientMessage)

	go func() {
		defer close(messageCh)
		for {
			var m clientMessage
			if err := socket.ReadJSON(&m); err != nil {
				var syntaxErr *json.SyntaxError
				var typeErr *json.UnmarshalTypeError
				// ReadJSON reports a truncated message as io.ErrUnexpectedEOF; the socket itself is still usable.
				if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
					logger.Debug("discarding malformed client frame", zap.Error(err))
					continue
				}
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("socket receive error", zap.Error(err))
				}
				return
			}
			select {
			case <-s.stop:
				return
			case <-conn.Done():
				return
			case messageCh <- m:
			}
		}
	}()

	return messageCh
}

func (s *SocketServer) handleControl(conn *Conn, m clientMessage) {
	var req events.RoomRequest
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &req); err != nil {
			s.sendError(conn, m.Event, "invalid payload")
			return
		}
	}

	switch m.Event {
	case events.JoinRoom:
		if req.TicketID <= 0 {
			s.sendError(conn, m.Event, "ticketId is required")
			return
		}
		s.registry.Join(conn.ID(), TicketRoom(req.TicketID))
	case events.LeaveRoom:
		if req.TicketID <= 0 {
			s.sendError(conn, m.Event, "ticketId is required")
			return
		}
		s.registry.Leave(conn.ID(), TicketRoom(req.TicketID))
	case events.JoinListRoom:
		s.registry.Join(conn.ID(), ListRoom(req.Scope))
	case events.LeaveListRoom:
		s.registry.Leave(conn.ID(), ListRoom(req.Scope))
	default:
		s.sendError(conn, m.Event, "unsupported event")
	}
}

func (s *SocketServer) sendError(conn *Conn, event events.Name, message string) {
	data, err := json.Marshal(events.ErrorPayload{Event: event, Message: message})
	if err != nil {
		return
	}
	frame, err := encodeFrame(events.SocketError, data)
	if err != nil {
		return
	}
	conn.Send(frame)
}

func (s *SocketServer) writeClose(socket *websocket.Conn, code int, writeWait time.Duration) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// authenticate accepts the token as a query parameter (browsers cannot set headers on
// websocket requests) or as a bearer header.
func (s *SocketServer) authenticate(req *http.Request) (*auth.Principal, error) {
	token := req.URL.Query().Get("token")
	if token == "" {
		var err error
		token, err = auth.BearerToken(req.Header.Get("Authorization"))
		if err != nil {
			return nil, err
		}
	}
	return s.tokens.Authenticate(token)
}

func (s *SocketServer) checkOrigin(req *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
