package http

import (
	"strconv"

	"github.com/indigo-web/pages/http/proto"
	"github.com/indigo-web/pages/http/status"
)

const (
	crlf                = "\r\n"
	contentLengthHeader = "Content-Length: "
)

// Response is a complete message. It is always serialized into a single buffer, so it
// reaches the connection via exactly one write
type Response struct {
	Proto proto.Proto
	Code  status.Code
	Body  []byte
}

func NewResponse(protocol proto.Proto, code status.Code, body []byte) Response {
	if protocol == proto.Unknown {
		protocol = proto.HTTP11
	}

	return Response{
		Proto: protocol,
		Code:  code,
		Body:  body,
	}
}

// Serialize appends the wire representation of the response to the buffer:
//
//	HTTP/<version> <code> <reason>\r\nContent-Length: <n>\r\n\r\n<body>
func (r Response) Serialize(buff []byte) []byte {
	buff = append(buff, r.Proto.String()...)
	buff = append(buff, ' ')
	buff = append(buff, status.StringCode(r.Code)...)
	buff = append(buff, ' ')
	buff = append(buff, status.Text(r.Code)...)
	buff = append(buff, crlf...)
	buff = append(buff, contentLengthHeader...)
	buff = strconv.AppendInt(buff, int64(len(r.Body)), 10)
	buff = append(buff, crlf+crlf...)

	return append(buff, r.Body...)
}

// Len returns the exact length of the serialized response
func (r Response) Len() int {
	contentLength := len(strconv.Itoa(len(r.Body)))

	return len(r.Proto.String()) + 1 + len(status.StringCode(r.Code)) + 1 +
		len(status.Text(r.Code)) + len(crlf) + len(contentLengthHeader) + contentLength +
		2*len(crlf) + len(r.Body)
}
