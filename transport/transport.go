package transport

import "net"

// Transport owns a listener and feeds accepted connections to the callback. The
// callback owns the connection from then on and is responsible for closing it
type Transport interface {
	Bind(addr string) error
	Addr() net.Addr
	Listen(cb func(conn net.Conn)) error
	Stop()
}
