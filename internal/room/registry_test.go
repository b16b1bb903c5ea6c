package room

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romashorodok/sketching-platform/pkg/protocol"
)

func TestRoomIDsAreMonotonic(t *testing.T) {
	reg := testRegistry(t, testSettings())

	first := reg.CreateRoom()
	second := reg.CreateRoom()

	assert.Equal(t, "R0", first.ID())
	assert.Equal(t, "R1", second.ID())
}

func TestRoomIDsNeverReusedAfterDestruction(t *testing.T) {
	reg := testRegistry(t, testSettings())

	first := reg.CreateRoom()
	require.Eventually(t, func() bool {
		_, err := reg.Lookup(first.ID())
		return err != nil
	}, time.Second, 5*time.Millisecond)

	next := reg.CreateRoom()
	assert.Equal(t, "R1", next.ID())
}

func TestLookupUnknownRoom(t *testing.T) {
	reg := testRegistry(t, testSettings())

	_, err := reg.Lookup("R404")
	require.ErrorIs(t, err, ErrRoomNotExist)
}

func TestListRoomsReportsMembers(t *testing.T) {
	reg := testRegistry(t, testSettings())
	r := reg.CreateRoom()
	require.NoError(t, r.Join("A", "alice", &fakeSender{}))

	rooms := reg.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, protocol.RoomInfo{
		RoomID:       r.ID(),
		Participants: []protocol.Participant{{ID: "A", Username: "alice"}},
	}, rooms[0])
}

func TestNotifierHearsAboutRoomChanges(t *testing.T) {
	settings := testSettings()
	notifier := NewNotifier()
	reg := NewRegistry(NewRegistryParams{
		Settings: settings,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Notifier: notifier,
	})

	lobby := &fakeSender{}
	notifier.Listen("lobby", lobby)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.OnUpdateRooms(ctx, func(s protocol.Sender) {
		s.Send(protocol.EventUpdateRooms, nil)
	})

	reg.CreateRoom()
	lobby.waitFor(t, protocol.EventUpdateRooms, time.Second)
}
