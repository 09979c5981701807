package http

import (
	"bytes"
	"io"

	"github.com/indigo-web/pages/http/status"
	"github.com/indigo-web/pages/transport"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
)

// lineReader splits the incoming stream into lines. Every returned line is stored in
// a single buffer shared by the whole request head, so returned strings stay valid
// until the reader itself is dropped.
type lineReader struct {
	client  transport.Client
	buff    *buffer.Buffer[byte]
	segment int
}

func newLineReader(client transport.Client, initial, maximal int) *lineReader {
	return &lineReader{
		client: client,
		buff:   buffer.NewBuffer[byte](initial, maximal),
	}
}

// Next returns the next line stripped of its LF and an optional CR. A line cut short
// by the end of the stream is still returned; io.EOF is reported only when nothing is
// left at all.
func (l *lineReader) Next() (string, error) {
	for {
		data, err := l.client.Read()
		if len(data) > 0 {
			lf := bytes.IndexByte(data, '\n')
			if lf == -1 {
				if !l.buff.Append(data...) {
					return "", status.ErrHeadTooLarge
				}

				l.segment += len(data)
			} else {
				if !l.buff.Append(data[:lf]...) {
					return "", status.ErrHeadTooLarge
				}

				l.client.Pushback(data[lf+1:])
				return l.finish(), nil
			}
		}

		if err != nil {
			if err == io.EOF && l.segment > 0 {
				return l.finish(), nil
			}

			return "", err
		}
	}
}

func (l *lineReader) finish() string {
	l.segment = 0
	return uf.B2S(rstripCR(l.buff.Finish()))
}

func rstripCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}

	return b
}
