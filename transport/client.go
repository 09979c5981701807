package transport

import (
	"net"
	"time"
)

type Client interface {
	Read() ([]byte, error)
	Pushback([]byte)
	Write([]byte) (int, error)
	Remote() net.Addr
	Close() error
}

type client struct {
	conn     net.Conn
	buff     []byte
	pending  []byte
	deadline time.Time
}

// NewClient wraps the connection. A positive timeout bounds the whole lifetime of the
// client's reads: the deadline is set once, counting from now. Zero timeout means
// reads may block forever
func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	c := &client{
		buff: buff,
		conn: conn,
	}

	if timeout > 0 {
		c.deadline = time.Now().Add(timeout)
	}

	return c
}

// Read reads data into the internal buffer and returns a piece of it back. The returned
// slice is valid only until the next call.
func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if !c.deadline.IsZero() {
		if err := c.conn.SetReadDeadline(c.deadline); err != nil {
			return nil, err
		}
	}

	n, err := c.conn.Read(c.buff)
	return c.buff[:n], err
}

// Pushback preserves a chunk of data from previous read for the next read.
func (c *client) Pushback(b []byte) {
	c.pending = b
}

// Write writes data into the underlying connection.
func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

// Remote returns the remote address of the connection.
func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection.
func (c *client) Close() error {
	return c.conn.Close()
}
