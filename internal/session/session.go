package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/romashorodok/sketching-platform/internal/room"
	"github.com/romashorodok/sketching-platform/pkg/batch"
	"github.com/romashorodok/sketching-platform/pkg/protocol"
	"github.com/romashorodok/sketching-platform/pkg/service"
)

var (
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrNotInRoom     = errors.New("not in a room")
)

const defaultUsername = "anon"

// Session bridges one connection's commands to registry and room operations.
// It is either unjoined (current == nil) or joined to exactly one room, and
// owns the batcher that coalesces this connection's pointer movements.
type Session struct {
	id       protocol.SessionID
	sender   protocol.Sender
	registry *room.Registry
	logger   *slog.Logger

	mu       sync.Mutex
	username string
	current  *room.Room
	color    string

	movements *batch.Batcher[protocol.Point]
}

type NewSession_Params struct {
	ID       protocol.SessionID
	Sender   protocol.Sender
	Registry *room.Registry
	Settings *service.Settings
	Logger   *slog.Logger
}

func NewSession(params NewSession_Params) *Session {
	s := &Session{
		id:       params.ID,
		sender:   params.Sender,
		registry: params.Registry,
		logger:   params.Logger,
		username: defaultUsername,
	}
	s.movements = batch.NewBatcher(
		params.Settings.BatchMaxSize,
		params.Settings.BatchMaxWait,
		s.sendMovementBatch,
	)
	return s
}

func (s *Session) ID() protocol.SessionID { return s.id }

// CreateAndJoin allocates a fresh room and joins it.
func (s *Session) CreateAndJoin(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return ErrAlreadyInRoom
	}
	return s.joinLocked(s.registry.CreateRoom(), username)
}

// Join enters an existing room by id.
func (s *Session) Join(roomID protocol.RoomID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return ErrAlreadyInRoom
	}
	r, err := s.registry.Lookup(roomID)
	if err != nil {
		return err
	}
	return s.joinLocked(r, username)
}

// joinLocked transitions to Joined. The room acks the connection on a
// successful join, ahead of any broadcast side effect; a failed join sends
// nothing.
func (s *Session) joinLocked(r *room.Room, username string) error {
	if err := r.Join(s.id, username, s.sender); err != nil {
		return err
	}
	s.username = username
	s.current = r
	return nil
}

func (s *Session) Leave() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNotInRoom
	}
	s.current.Leave(s.id)
	s.current = nil
	return nil
}

// Disconnect releases room membership best-effort and drops any pending
// movement batch so its timer cannot fire against a dead session.
func (s *Session) Disconnect() {
	s.movements.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Leave(s.id)
		s.current = nil
	}
	s.logger.Debug("session disconnected", slog.String("session_id", s.id))
}

func (s *Session) SetColor(color string) {
	s.mu.Lock()
	s.color = color
	r := s.current
	s.mu.Unlock()

	if r == nil {
		return
	}
	r.BroadcastExcept(s.id, protocol.EventSetColor, protocol.SetColor{ID: s.id, Color: color})
}

func (s *Session) ClearCanvas() {
	r := s.currentRoom()
	if r == nil {
		return
	}
	r.BroadcastExcept(s.id, protocol.EventClearCanvas, protocol.ClearCanvas{ID: s.id})
}

func (s *Session) PathStart(x, y float64) {
	r := s.currentRoom()
	if r == nil {
		return
	}
	r.BroadcastExcept(s.id, protocol.EventPathStarted, protocol.PathStarted{ID: s.id, X: x, Y: y})
}

func (s *Session) PathMove(x, y float64) {
	// Same unjoined guard as the other drawing commands, otherwise pre-join
	// samples would leak into a room joined within the max-wait window.
	if s.currentRoom() == nil {
		return
	}
	s.movements.Add(protocol.Point{x, y})
}

// PathEnd force-flushes buffered movements first so the batch reaches the
// other members before the end-of-path notice.
func (s *Session) PathEnd() {
	r := s.currentRoom()
	if r == nil {
		return
	}
	s.movements.Flush()
	r.BroadcastExcept(s.id, protocol.EventPathEnded, protocol.PathEnded{ID: s.id})
}

func (s *Session) sendMovementBatch(points []protocol.Point) {
	r := s.currentRoom()
	if r == nil {
		return
	}
	s.logger.Debug("sending movement batch",
		slog.String("session_id", s.id),
		slog.Int("size", len(points)))
	r.BroadcastExcept(s.id, protocol.EventPathMoveBatch, protocol.PathMoveBatch{ID: s.id, Points: points})
}

func (s *Session) currentRoom() *room.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
