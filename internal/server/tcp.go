package server

import (
	"bufio"
	"net"
	"time"

	"github.com/efreitasn/matchd/internal/wire"
)

// tcpChannel writes records straight to a TCP connection.
type tcpChannel struct {
	conn         net.Conn
	writeTimeout time.Duration
}

func (c *tcpChannel) WriteRecord(b []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := c.conn.Write(b)
	return err
}

func (c *tcpChannel) Close() error {
	return c.conn.Close()
}

func (c *tcpChannel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (s *Server) serveTCP(conn net.Conn) {
	ch := &tcpChannel{conn: conn, writeTimeout: s.opts.WriteTimeout}
	r := bufio.NewReaderSize(conn, 16*wire.RecordSize)
	s.serveSession(ch, func() (wire.Record, error) {
		return wire.ReadRecord(r)
	})
	// The registry normally closes the connection; this covers a handler
	// that returns before its session was pruned.
	_ = conn.Close()
}
