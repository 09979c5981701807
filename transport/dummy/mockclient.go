package dummy

import (
	"errors"
	"io"
	"net"

	"github.com/indigo-web/pages/transport"
)

var _ transport.Client = new(Client)

var ErrWriteFailed = errors.New("mock client: write failed")

// Client returns the chunks it was initialised with one by one and io.EOF afterwards,
// unless looped. It also tracks all the written data, making it thereby a universal
// mock suitable for most of the tests.
type Client struct {
	closed     bool
	loop       bool
	failWrites bool
	pointer    int
	reads      int
	tmp        []byte
	written    []byte
	data       [][]byte
}

func NewMockClient(data ...[]byte) *Client {
	return &Client{
		data: data,
	}
}

func (c *Client) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil

		return data, nil
	}

	if c.pointer >= len(c.data) {
		if !c.loop || len(c.data) == 0 {
			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++
	c.reads++

	return piece, nil
}

func (c *Client) Pushback(takeback []byte) {
	c.tmp = takeback
}

func (c *Client) Write(p []byte) (int, error) {
	if c.failWrites {
		return 0, ErrWriteFailed
	}

	c.written = append(c.written, p...)

	return len(p), nil
}

func (*Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// LoopReads makes the client start over after the last chunk instead of returning io.EOF.
func (c *Client) LoopReads() *Client {
	c.loop = true
	return c
}

func (c *Client) FailWrites() *Client {
	c.failWrites = true
	return c
}

func (c *Client) Written() string {
	return string(c.written)
}

func (c *Client) Closed() bool {
	return c.closed
}

// Reads returns how many chunks were consumed from the initial data.
func (c *Client) Reads() int {
	return c.reads
}
