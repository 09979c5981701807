package http

import (
	"bufio"
	"bytes"
	stdhttp "net/http"
	"testing"

	"github.com/indigo-web/pages/http/proto"
	"github.com/indigo-web/pages/http/status"
	"github.com/stretchr/testify/require"
)

func TestResponse(t *testing.T) {
	t.Run("with body", func(t *testing.T) {
		resp := NewResponse(proto.HTTP11, status.OK, []byte("<html></html>"))
		data := resp.Serialize(nil)
		require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 13\r\n\r\n<html></html>", string(data))
		require.Equal(t, len(data), resp.Len())
	})

	t.Run("bodyless not found", func(t *testing.T) {
		resp := NewResponse(proto.HTTP12, status.NotFound, nil)
		data := resp.Serialize(nil)
		require.Equal(t, "HTTP/1.2 404 NOT FOUND\r\nContent-Length: 0\r\n\r\n", string(data))
		require.Equal(t, len(data), resp.Len())
	})

	t.Run("unknown protocol falls back to HTTP/1.1", func(t *testing.T) {
		resp := NewResponse(proto.Unknown, status.InternalServerError, nil)
		require.Equal(t,
			"HTTP/1.1 500 Internal Server Error\r\nContent-Length: 0\r\n\r\n",
			string(resp.Serialize(nil)),
		)
	})

	t.Run("readable by net/http", func(t *testing.T) {
		resp := NewResponse(proto.HTTP11, status.OK, []byte("Hello, world!"))
		stdresp, err := stdhttp.ReadResponse(bufio.NewReader(bytes.NewReader(resp.Serialize(nil))), nil)
		require.NoError(t, err)
		require.Equal(t, 200, stdresp.StatusCode)
		require.Equal(t, int64(13), stdresp.ContentLength)
		require.NoError(t, stdresp.Body.Close())
	})

	t.Run("appends to the buffer", func(t *testing.T) {
		buff := []byte("prefix")
		buff = NewResponse(proto.HTTP11, status.OK, nil).Serialize(buff)
		require.Equal(t, "prefixHTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", string(buff))
	})
}
