package status

type (
	Code   uint16
	Status string
)

// Only the codes the server is able to respond with are listed.
// See: https://www.iana.org/assignments/http-status-codes/http-status-codes.xhtml
const (
	OK Code = 200 // RFC 9110, 15.3.1

	NotFound Code = 404 // RFC 9110, 15.5.5

	InternalServerError     Code = 500 // RFC 9110, 15.6.1
	NotImplemented          Code = 501 // RFC 9110, 15.6.2
	HTTPVersionNotSupported Code = 505 // RFC 9110, 15.6.6
)

var KnownCodes = []Code{
	OK, NotFound, InternalServerError, NotImplemented, HTTPVersionNotSupported,
}

// Text returns the reason phrase written after the code in a status line. Not found
// is spelled upper-case, the way existing clients of the server expect it. For
// unknown codes the empty string is returned.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case NotFound:
		return "NOT FOUND"
	case InternalServerError:
		return "Internal Server Error"
	case NotImplemented:
		return "Not Implemented"
	case HTTPVersionNotSupported:
		return "HTTP Version Not Supported"
	default:
		return ""
	}
}

// StringCode returns the decimal representation of the code without allocating for
// the known ones
func StringCode(code Code) string {
	switch code {
	case OK:
		return "200"
	case NotFound:
		return "404"
	case InternalServerError:
		return "500"
	case NotImplemented:
		return "501"
	case HTTPVersionNotSupported:
		return "505"
	}

	return itoa(uint16(code))
}

func itoa(n uint16) string {
	if n == 0 {
		return "0"
	}

	var buff [5]byte
	i := len(buff)
	for n > 0 {
		i--
		buff[i] = byte('0' + n%10)
		n /= 10
	}

	return string(buff[i:])
}

// IsServerError reports whether the code belongs to the 5xx class
func IsServerError(code Code) bool {
	return code >= 500 && code < 600
}
