package room

import (
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/fx"

	"github.com/romashorodok/sketching-platform/pkg/protocol"
	"github.com/romashorodok/sketching-platform/pkg/service"
)

// Registry is the process-wide room map. Room ids are allocated from a
// monotonic counter and never reused; a room leaves the registry only through
// its own idle-destruction callback.
type Registry struct {
	mu      sync.Mutex
	rooms   map[protocol.RoomID]*Room
	counter atomic.Int64

	settings *service.Settings
	logger   *slog.Logger
	notifier *Notifier
}

func (reg *Registry) CreateRoom() *Room {
	id := fmt.Sprintf("R%d", reg.counter.Add(1)-1)

	r := newRoom(newRoom_Params{
		ID:             id,
		IdleTimeout:    reg.settings.RoomIdleTimeout,
		CountdownDelay: reg.settings.GameCountdown,
		MinPlayers:     reg.settings.MinPlayers,
		Rounds:         reg.settings.GameRounds,
		Logger:         reg.logger,
		OnDestroy:      reg.remove,
	})

	reg.mu.Lock()
	reg.rooms[id] = r
	reg.mu.Unlock()

	reg.logger.Info("room created", slog.String("room_id", id))
	reg.notifier.DispatchUpdateRooms()
	return r
}

func (reg *Registry) Lookup(id protocol.RoomID) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, exist := reg.rooms[id]
	if !exist {
		return nil, ErrRoomNotExist
	}
	return r, nil
}

func (reg *Registry) ListRooms() []protocol.RoomInfo {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.Unlock()

	result := make([]protocol.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, r.Info())
	}
	return result
}

// remove is the destruction-timer exit path. No other caller takes a room
// out of the registry. The emptiness check runs under both locks: a join
// that landed between the timer firing and this callback must win over the
// removal, otherwise its member is stranded in an unreachable room.
func (reg *Registry) remove(r *Room) {
	reg.mu.Lock()
	r.mu.Lock()
	if len(r.members) > 0 {
		r.mu.Unlock()
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, r.id)
	r.mu.Unlock()
	reg.mu.Unlock()

	reg.logger.Info("destroying idle room", slog.String("room_id", r.id))
	reg.notifier.DispatchUpdateRooms()
}

type NewRegistryParams struct {
	fx.In

	Settings *service.Settings
	Logger   *slog.Logger
	Notifier *Notifier
}

func NewRegistry(params NewRegistryParams) *Registry {
	return &Registry{
		rooms:    make(map[protocol.RoomID]*Room),
		settings: params.Settings,
		logger:   params.Logger,
		notifier: params.Notifier,
	}
}
