package protocol

import "encoding/json"

type (
	RoomID    = string
	SessionID = string
)

// Point is one pointer-movement sample. It marshals as the [x, y] pair the
// canvas clients emit.
type Point [2]float64

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Sender delivers outbound events to a single connection.
type Sender interface {
	Send(event string, data any) error
}

// Inbound command events.
const (
	EventCreateAndJoin = "create-and-join"
	EventJoin          = "join"
	EventLeave         = "leave"
	EventSetColor      = "set-color"
	EventClearCanvas   = "clear-canvas"
	EventPathStart     = "path-start"
	EventPathMove      = "path-move"
	EventPathEnd       = "path-end"
)

// Outbound events.
const (
	EventConnected          = "connected"
	EventAlreadyInRoom      = "already-in-room"
	EventRoomNotFound       = "room-not-found"
	EventNotInRoom          = "not-in-room"
	EventPlayerJoined       = "player-joined"
	EventPlayerList         = "player-list"
	EventClientLeft         = "client-left"
	EventGameWillStart      = "game-will-start"
	EventGameStartCancelled = "game-start-cancelled"
	EventGameStarted        = "game-started"
	EventPathStarted        = "path-started"
	EventPathMoveBatch      = "path-move-batch"
	EventPathEnded          = "path-ended"
	EventUpdateRooms        = "update-rooms"
	EventError              = "error"
)

type CreateAndJoinRequest struct {
	Username string `json:"username"`
}

type JoinRequest struct {
	RoomID   RoomID `json:"roomId"`
	Username string `json:"username"`
}

type SetColorRequest struct {
	Color string `json:"color"`
}

type PathPointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Connected struct {
	RoomID RoomID    `json:"roomId"`
	ID     SessionID `json:"id"`
}

type RoomNotFound struct {
	RoomID RoomID `json:"roomId"`
}

type PlayerJoined struct {
	ID       SessionID `json:"id"`
	Username string    `json:"username"`
}

// PlayerEntry marshals as the [id, username] pair of the roster wire format.
type PlayerEntry [2]string

type PlayerList struct {
	Players []PlayerEntry `json:"players"`
}

type ClientLeft struct {
	ID SessionID `json:"id"`
}

type GameWillStart struct {
	// StartsAt is the absolute start time in unix epoch milliseconds.
	StartsAt int64 `json:"startsAt"`
}

type GameStarted struct {
	Rounds int `json:"rounds"`
}

type SetColor struct {
	ID    SessionID `json:"id"`
	Color string    `json:"color"`
}

type ClearCanvas struct {
	ID SessionID `json:"id"`
}

type PathStarted struct {
	ID SessionID `json:"id"`
	X  float64   `json:"x"`
	Y  float64   `json:"y"`
}

type PathMoveBatch struct {
	ID     SessionID `json:"id"`
	Points []Point   `json:"points"`
}

type PathEnded struct {
	ID SessionID `json:"id"`
}

type Error struct {
	Message string `json:"message"`
}

// Participant is one room member as reported by the REST room surface.
type Participant struct {
	ID       SessionID `json:"id"`
	Username string    `json:"username"`
}

type RoomInfo struct {
	RoomID       RoomID        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

type RoomCreateResponse struct {
	RoomID RoomID `json:"roomId"`
}

type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}
