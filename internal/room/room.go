package room

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/romashorodok/sketching-platform/pkg/protocol"
	"github.com/romashorodok/sketching-platform/pkg/schedule"
)

var (
	ErrRoomNotExist  = errors.New("room not exist")
	ErrAlreadyMember = errors.New("already a room member")
	ErrNotMember     = errors.New("not a room member")
)

type member struct {
	id       protocol.SessionID
	username string
	sender   protocol.Sender
}

// Room owns a set of member sessions and their broadcast scope. Its member
// map is the single source of truth for fan-out; membership transitions drive
// the idle-destruction and countdown timers.
type Room struct {
	id protocol.RoomID

	mu      sync.Mutex
	members map[protocol.SessionID]*member
	// order keeps join order for roster snapshots.
	order []protocol.SessionID

	destruction *schedule.Event
	countdown   *schedule.Event

	idleTimeout    time.Duration
	countdownDelay time.Duration
	minPlayers     int
	rounds         int

	logger    *slog.Logger
	onDestroy func(*Room)
}

type newRoom_Params struct {
	ID             protocol.RoomID
	IdleTimeout    time.Duration
	CountdownDelay time.Duration
	MinPlayers     int
	Rounds         int
	Logger         *slog.Logger
	OnDestroy      func(*Room)
}

func newRoom(params newRoom_Params) *Room {
	r := &Room{
		id:             params.ID,
		members:        make(map[protocol.SessionID]*member),
		idleTimeout:    params.IdleTimeout,
		countdownDelay: params.CountdownDelay,
		minPlayers:     params.MinPlayers,
		rounds:         params.Rounds,
		logger:         params.Logger,
		onDestroy:      params.OnDestroy,
	}
	// The emptiness check lives in onDestroy, which serializes against joins.
	r.destruction = schedule.NewEvent(func() { r.onDestroy(r) })
	r.countdown = schedule.NewEvent(r.startGame)

	// A room is born empty, so its idle clock starts immediately.
	r.destruction.Schedule(r.idleTimeout)
	return r
}

func (r *Room) ID() protocol.RoomID { return r.id }

// Join adds the session to the room, tells the existing members about it and
// hands the joiner a roster of everyone else. Reaching the player minimum
// arms the countdown.
func (r *Room) Join(id protocol.SessionID, username string, sender protocol.Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exist := r.members[id]; exist {
		return ErrAlreadyMember
	}

	// Ack first, so the joiner observes it ahead of the roster and any
	// other side effect of its own join.
	sender.Send(protocol.EventConnected, protocol.Connected{RoomID: r.id, ID: id})

	belowMinimum := len(r.members) < r.minPlayers

	r.members[id] = &member{id: id, username: username, sender: sender}
	r.order = append(r.order, id)
	r.destruction.Cancel()

	r.broadcastLocked(id, protocol.EventPlayerJoined, protocol.PlayerJoined{
		ID:       id,
		Username: username,
	})

	roster := protocol.PlayerList{Players: make([]protocol.PlayerEntry, 0, len(r.members)-1)}
	for _, memberID := range r.order {
		if memberID == id {
			continue
		}
		m := r.members[memberID]
		roster.Players = append(roster.Players, protocol.PlayerEntry{m.id, m.username})
	}
	sender.Send(protocol.EventPlayerList, roster)

	if belowMinimum && len(r.members) >= r.minPlayers {
		if r.countdown.Schedule(r.countdownDelay) {
			r.logger.Info("countdown armed",
				slog.String("room_id", r.id),
				slog.Duration("delay", r.countdownDelay))
			r.emitLocked(protocol.EventGameWillStart, protocol.GameWillStart{
				StartsAt: time.Now().Add(r.countdownDelay).UnixMilli(),
			})
		}
	}

	r.logger.Info("member joined",
		slog.String("room_id", r.id),
		slog.String("session_id", id),
		slog.String("username", username))
	return nil
}

// Leave removes the session and tells the remaining members. Dropping below
// the player minimum cancels a pending countdown; dropping to zero arms the
// idle destruction.
func (r *Room) Leave(id protocol.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exist := r.members[id]; !exist {
		return ErrNotMember
	}

	delete(r.members, id)
	for i, memberID := range r.order {
		if memberID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.emitLocked(protocol.EventClientLeft, protocol.ClientLeft{ID: id})

	if len(r.members) < r.minPlayers {
		if r.countdown.Cancel() {
			r.emitLocked(protocol.EventGameStartCancelled, nil)
		}
	}
	if len(r.members) == 0 {
		r.destruction.Schedule(r.idleTimeout)
	}

	r.logger.Info("member left",
		slog.String("room_id", r.id),
		slog.String("session_id", id))
	return nil
}

// BroadcastExcept delivers the event to every member but the sender.
func (r *Room) BroadcastExcept(sender protocol.SessionID, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(sender, event, data)
}

func (r *Room) Info() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants := make([]protocol.Participant, 0, len(r.members))
	for _, memberID := range r.order {
		m := r.members[memberID]
		participants = append(participants, protocol.Participant{
			ID:       m.id,
			Username: m.username,
		})
	}
	return protocol.RoomInfo{RoomID: r.id, Participants: participants}
}

// emitLocked delivers to every member, the sender included.
func (r *Room) emitLocked(event string, data any) {
	for _, m := range r.members {
		m.sender.Send(event, data)
	}
}

func (r *Room) broadcastLocked(sender protocol.SessionID, event string, data any) {
	for id, m := range r.members {
		if id == sender {
			continue
		}
		m.sender.Send(event, data)
	}
}

func (r *Room) startGame() {
	r.mu.Lock()
	// A leave may slip in between the timer firing and this callback taking
	// the lock.
	if len(r.members) < r.minPlayers {
		r.mu.Unlock()
		return
	}
	r.emitLocked(protocol.EventGameStarted, protocol.GameStarted{Rounds: r.rounds})
	r.mu.Unlock()

	r.logger.Info("game started", slog.String("room_id", r.id), slog.Int("rounds", r.rounds))
}
