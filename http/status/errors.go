package status

import "errors"

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// CodeOf returns the status code carried by the error, or InternalServerError if the
// error isn't an HTTPError
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}

// Every request-line error maps onto the 5xx class, so a client sending garbage always
// gets a server error back.
var (
	ErrMalformedStatusLine = NewError(InternalServerError, "status line must consist of exactly 3 tokens")
	ErrUnsupportedMethod   = NewError(NotImplemented, "request method is not supported")
	ErrInvalidPath         = NewError(InternalServerError, "request target must start with a slash")
	ErrInvalidVersion      = NewError(InternalServerError, "malformed HTTP version token")
	ErrUnsupportedVersion  = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrHeadTooLarge        = NewError(InternalServerError, "request head is too large")
	ErrEmptyRequest        = NewError(InternalServerError, "no request line received")
)
