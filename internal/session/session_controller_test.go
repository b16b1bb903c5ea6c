package session

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romashorodok/sketching-platform/internal/room"
	"github.com/romashorodok/sketching-platform/pkg/protocol"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	settings := testSettings()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := room.NewNotifier()
	registry := room.NewRegistry(room.NewRegistryParams{
		Settings: settings,
		Logger:   logger,
		Notifier: notifier,
	})

	ctrl := NewSessionController(newSessionController_Params{
		Registry: registry,
		Notifier: notifier,
		Settings: settings,
		Logger:   logger,
	})

	router := echo.New()
	require.NoError(t, ctrl.Resolve(router))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialSession(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		require.NoError(t, err)
		raw = encoded
	}
	require.NoError(t, conn.WriteJSON(&protocol.Envelope{Event: event, Data: raw}))
}

func readUntil(t *testing.T, conn *websocket.Conn, event string) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var message protocol.Envelope
		require.NoError(t, conn.ReadJSON(&message), "waiting for %q", event)
		if message.Event == event {
			return message
		}
	}
}

func TestServeCreateAndJoinOverWire(t *testing.T) {
	srv := newTestServer(t)
	conn := dialSession(t, srv)

	writeEvent(t, conn, protocol.EventCreateAndJoin, protocol.CreateAndJoinRequest{Username: "alice"})

	connected := readUntil(t, conn, protocol.EventConnected)
	var ack protocol.Connected
	require.NoError(t, json.Unmarshal(connected.Data, &ack))
	assert.Equal(t, "R0", ack.RoomID)
	assert.NotEmpty(t, ack.ID)

	readUntil(t, conn, protocol.EventPlayerList)
}

func TestFrameWithoutDataDoesNotReusePreviousPayload(t *testing.T) {
	srv := newTestServer(t)
	conn := dialSession(t, srv)

	writeEvent(t, conn, protocol.EventCreateAndJoin, protocol.CreateAndJoinRequest{Username: "alice"})
	readUntil(t, conn, protocol.EventConnected)

	// A well-formed command first, so a leaked payload from it would make the
	// following bare frame parse cleanly.
	writeEvent(t, conn, protocol.EventSetColor, protocol.SetColorRequest{Color: "#ff0000"})

	// The bare frame carries no data field and must be rejected as malformed
	// instead of inheriting the previous frame's payload.
	raw := []byte(`{"event":"` + protocol.EventSetColor + `"}`)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))

	readUntil(t, conn, protocol.EventError)
}

func TestJoinUnknownRoomOverWire(t *testing.T) {
	srv := newTestServer(t)
	conn := dialSession(t, srv)

	writeEvent(t, conn, protocol.EventJoin, protocol.JoinRequest{RoomID: "R404", Username: "alice"})

	notFound := readUntil(t, conn, protocol.EventRoomNotFound)
	var data protocol.RoomNotFound
	require.NoError(t, json.Unmarshal(notFound.Data, &data))
	assert.Equal(t, "R404", data.RoomID)
}
