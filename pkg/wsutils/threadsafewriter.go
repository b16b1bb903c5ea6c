package wsutils

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/romashorodok/sketching-platform/pkg/protocol"
)

// ThreadSafeWriter serializes writes on one websocket connection. Gorilla
// conns allow a single concurrent writer, but room fan-out and the session's
// own acks hit the same conn from different goroutines.
type ThreadSafeWriter struct {
	*websocket.Conn
	sync.Mutex
}

func (t *ThreadSafeWriter) WriteJSON(val any) error {
	t.Lock()
	defer t.Unlock()

	return t.Conn.WriteJSON(val)
}

// Send frames data into the wire envelope under the event name. A nil data
// produces an envelope without a data field.
func (t *ThreadSafeWriter) Send(event string, data any) error {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = encoded
	}
	return t.WriteJSON(&protocol.Envelope{Event: event, Data: raw})
}

func (t *ThreadSafeWriter) Close() error {
	return t.Conn.Close()
}

func (t *ThreadSafeWriter) ReadJSON(val any) error {
	return t.Conn.ReadJSON(val)
}

func NewThreadSafeWriter(conn *websocket.Conn) *ThreadSafeWriter {
	return &ThreadSafeWriter{
		Conn: conn,
	}
}

var _ protocol.Sender = (*ThreadSafeWriter)(nil)
