package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/efreitasn/matchd/internal/wire"
)

// maxMessageSize caps inbound frames. Anything other than exactly
// wire.RecordSize is rejected after reading anyway.
const maxMessageSize = 512

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsChannel writes each record as one binary message. gorilla/websocket
// allows one concurrent writer, which the session writer goroutine is.
type wsChannel struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsChannel) WriteRecord(b []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

func (c *wsChannel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// ServeHTTP upgrades the request to a WebSocket and runs a session on it
// until the connection ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Info("websocket upgrade failed", zap.Error(err))
		return
	}
	// The admin server's read deadline outlives the hijack.
	_ = conn.SetReadDeadline(time.Time{})
	conn.SetReadLimit(maxMessageSize)

	ch := &wsChannel{conn: conn, writeTimeout: s.opts.WriteTimeout}
	s.serveSession(ch, func() (wire.Record, error) {
		return readWSRecord(conn)
	})
	_ = conn.Close()
}

func readWSRecord(conn *websocket.Conn) (wire.Record, error) {
	mt, data, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return wire.Record{}, io.EOF
		}
		return wire.Record{}, err
	}
	if mt != websocket.BinaryMessage {
		return wire.Record{}, &wire.CodecError{Reason: "text message"}
	}
	return wire.Decode(data)
}
