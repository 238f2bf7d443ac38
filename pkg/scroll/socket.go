package scroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Message types of the scroll channel.
const (
	MsgNavigation = "navigation" // client → server
	MsgPosition   = "position"   // client → server, answers MsgMeasure
	MsgScrollTo   = "scrollTo"   // server → client
	MsgMeasure    = "measure"    // server → client
)

// Message is a frame of the scroll channel.
type Message struct {
	Type      string   `json:"type"`
	State     NavState `json:"state,omitempty"`
	Key       string   `json:"key,omitempty"`
	ScrollTop int      `json:"scrollTop,omitempty"`
	Top       int      `json:"top"`
}

// errSuperseded stops a restoration when the client starts another navigation.
var errSuperseded = errors.New("scroll: navigation superseded")

// HandlerOption configures Handler.
type HandlerOption func(*handler)

// WithCheckOrigin sets the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(h *handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithReadTimeout bounds how long the server waits for a client frame.
// Default: 60s.
func WithReadTimeout(d time.Duration) HandlerOption {
	return func(h *handler) {
		if d > 0 {
			h.readTimeout = d
		}
	}
}

// WithHandlerLogger sets the logger of the handler.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *handler) {
		if l != nil {
			h.logger = l
		}
	}
}

type handler struct {
	m           *Manager
	sessionID   func(r *http.Request) string
	upgrader    websocket.Upgrader
	readTimeout time.Duration
	logger      *slog.Logger
}

// Handler returns the websocket endpoint through which a browser reports
// navigation events and receives scroll restorations. sessionID maps the
// upgrade request to the session owning the offsets.
func Handler(m *Manager, sessionID func(r *http.Request) string, opts ...HandlerOption) http.Handler {
	h := &handler{
		m:           m,
		sessionID:   sessionID,
		readTimeout: 60 * time.Second,
		logger:      slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("scroll channel upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session := h.sessionID(r)
	sock := &socket{conn: conn, timeout: h.readTimeout}
	tracker := NewTracker(h.m, session)
	ctx := r.Context()

	for {
		ev, err := sock.next()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.logger.Error("scroll channel read error", "session", session, "error", err)
			}
			return
		}

		if err := tracker.Observe(ctx, ev, sock); err != nil && !errors.Is(err, errSuperseded) {
			h.logger.Warn("scroll event failed",
				"session", session,
				"key", ev.Key,
				"state", ev.State,
				"error", err,
			)
			if sock.broken {
				return
			}
		}
	}
}

// socket adapts a websocket connection to Container.
type socket struct {
	conn    *websocket.Conn
	timeout time.Duration
	pending []Event
	broken  bool
}

// next returns the next navigation event, buffered ones first.
func (s *socket) next() (Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}
	for {
		msg, err := s.read()
		if err != nil {
			return Event{}, err
		}
		if msg.Type == MsgNavigation {
			return Event{State: msg.State, Key: msg.Key, ScrollTop: msg.ScrollTop}, nil
		}
		// Late position answers from an abandoned restoration are dropped.
	}
}

func (s *socket) read() (Message, error) {
	var msg Message
	s.conn.SetReadDeadline(time.Now().Add(s.timeout))
	if err := s.conn.ReadJSON(&msg); err != nil {
		s.broken = true
		return Message{}, err
	}
	return msg, nil
}

func (s *socket) write(msg Message) error {
	if err := s.conn.WriteJSON(msg); err != nil {
		s.broken = true
		return fmt.Errorf("scroll channel write: %w", err)
	}
	return nil
}

// ScrollTo implements Container.
func (s *socket) ScrollTo(_ context.Context, top int) error {
	return s.write(Message{Type: MsgScrollTo, Top: top})
}

// ScrollTop implements Container. A navigation event arriving before the
// answer supersedes the restoration in progress.
func (s *socket) ScrollTop(_ context.Context) (int, error) {
	if err := s.write(Message{Type: MsgMeasure}); err != nil {
		return 0, err
	}
	for {
		msg, err := s.read()
		if err != nil {
			return 0, err
		}
		switch msg.Type {
		case MsgPosition:
			return msg.Top, nil
		case MsgNavigation:
			s.pending = append(s.pending, Event{State: msg.State, Key: msg.Key, ScrollTop: msg.ScrollTop})
			return 0, errSuperseded
		}
	}
}
