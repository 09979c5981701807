package address

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
)

var ErrBadPort = errors.New("invalid port")

type Address struct {
	Host string
	Port uint16
}

// Parse splits the address into host and port, filling the missing parts with defaults.
// Port 0 is kept as is and lets the system pick a free port on bind
func Parse(addr string) (Address, error) {
	host, port := splitHostPort(addr)
	if len(host) == 0 {
		host = DefaultHost
	}

	if len(port) == 0 {
		return Address{Host: host, Port: DefaultPort}, nil
	}

	num, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %s", ErrBadPort, port)
	}

	return Address{Host: host, Port: uint16(num)}, nil
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

func (a Address) IsLocalhost() bool {
	if strings.EqualFold(a.Host, "localhost") {
		return true
	}

	ip := net.ParseIP(a.Host)
	return ip != nil && ip.IsLoopback()
}

func splitHostPort(addr string) (host, port string) {
	if strings.HasPrefix(addr, "[") {
		// IPv6 literal, the port may only follow the closing bracket
		end := strings.IndexByte(addr, ']')
		if end == -1 {
			return addr, ""
		}

		host, rest := addr[1:end], addr[end+1:]
		return host, strings.TrimPrefix(rest, ":")
	}

	colon := strings.LastIndexByte(addr, ':')
	if colon == -1 {
		return addr, ""
	}

	if strings.IndexByte(addr[:colon], ':') != -1 {
		// bare IPv6 address without brackets and port
		return addr, ""
	}

	return addr[:colon], addr[colon+1:]
}
