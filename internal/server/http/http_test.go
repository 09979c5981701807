package http

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/indigo-web/pages/config"
	"github.com/indigo-web/pages/http/status"
	"github.com/indigo-web/pages/internal/pages"
	"github.com/indigo-web/pages/transport/dummy"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const root = "/srv/pages"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFS(t testing.TB, files map[string]string) afero.Fs {
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, root+"/"+name, []byte(content), 0o644))
	}

	return fs
}

func newServer(t testing.TB, fs afero.Fs, opts ...Option) *Server {
	cfg := config.Default()
	layout := pages.Layout{
		Root:      root,
		Index:     cfg.Pages.Index,
		Extension: cfg.Pages.Extension,
		NotFound:  cfg.Pages.NotFound,
	}

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	server, err := NewServer(cfg.NET, pages.NewResolver(fs, layout, quietLogger()), opts...)
	require.NoError(t, err)

	return server
}

// disperse splits data into chunks of n bytes at most
func disperse(data string, n int) (parts [][]byte) {
	for len(data) > 0 {
		end := min(n, len(data))
		parts = append(parts, []byte(data[:end]))
		data = data[end:]
	}

	return parts
}

func serve(t *testing.T, server *Server, data ...[]byte) (*dummy.Client, *stdhttp.Response, string) {
	t.Helper()
	client := dummy.NewMockClient(data...)
	server.Run(client)
	require.True(t, client.Closed(), "connection must be closed")

	resp, err := stdhttp.ReadResponse(bufio.NewReader(strings.NewReader(client.Written())), nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return client, resp, string(body)
}

var site = map[string]string{
	"index.html":  "<html></html>",
	"about.html":  "about us",
	"404.html":    "404",
	"docs/a.html": "nested",
}

func TestServer(t *testing.T) {
	server := newServer(t, newFS(t, site))

	t.Run("index", func(t *testing.T) {
		client, resp, body := serve(t, server, []byte("GET / HTTP/1.1\r\n\r\n"))
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, int64(13), resp.ContentLength)
		require.Equal(t, "<html></html>", body)
		require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.1 200 OK\r\n"))
	})

	t.Run("page with extension appended", func(t *testing.T) {
		_, resp, body := serve(t, server, []byte("GET /about HTTP/1.1\r\nHost: localhost\r\n\r\n"))
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "about us", body)
	})

	t.Run("nested page", func(t *testing.T) {
		_, resp, body := serve(t, server, []byte("GET /docs/a HTTP/1.1\r\n\r\n"))
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "nested", body)
	})

	t.Run("query is not part of the page name", func(t *testing.T) {
		_, resp, body := serve(t, server, []byte("GET /about?lang=en HTTP/1.1\r\n\r\n"))
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "about us", body)
	})

	t.Run("version is echoed", func(t *testing.T) {
		client, _, _ := serve(t, server, []byte("GET / HTTP/1.2\r\n\r\n"))
		require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.2 200 OK\r\n"))
	})

	t.Run("missing page falls back to the not-found page", func(t *testing.T) {
		client, resp, body := serve(t, server, []byte("GET /nope HTTP/1.1\r\n\r\n"))
		require.Equal(t, 404, resp.StatusCode)
		require.Equal(t, "404", body)
		require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.1 404 NOT FOUND\r\n"))
	})

	t.Run("traversal is not found", func(t *testing.T) {
		for _, path := range []string{"/../etc/passwd", "/docs/../../secret", "/a\\b"} {
			_, resp, body := serve(t, server, []byte("GET "+path+" HTTP/1.1\r\n\r\n"))
			require.Equal(t, 404, resp.StatusCode, path)
			require.Equal(t, "404", body, path)
		}
	})

	t.Run("LF line endings", func(t *testing.T) {
		_, resp, _ := serve(t, server, []byte("GET / HTTP/1.1\nHost: x\n\n"))
		require.Equal(t, 200, resp.StatusCode)
	})

	t.Run("end of stream instead of an empty line", func(t *testing.T) {
		_, resp, _ := serve(t, server, []byte("GET / HTTP/1.1\r\nHost: x"))
		require.Equal(t, 200, resp.StatusCode)

		_, resp, _ = serve(t, server, []byte("GET / HTTP/1.1"))
		require.Equal(t, 200, resp.StatusCode)
	})

	t.Run("dispersed request", func(t *testing.T) {
		raw := "GET /about HTTP/1.1\r\nHost: localhost\r\nAccept: */*\r\nUser-Agent: test\r\n\r\n"
		for _, n := range []int{1, 2, 3, 7, 16} {
			_, resp, body := serve(t, server, disperse(raw, n)...)
			require.Equal(t, 200, resp.StatusCode, n)
			require.Equal(t, "about us", body, n)
		}
	})
}

func TestBareNotFound(t *testing.T) {
	server := newServer(t, newFS(t, map[string]string{"index.html": "index"}))
	client, resp, body := serve(t, server, []byte("GET /nope HTTP/1.1\r\n\r\n"))
	require.Equal(t, 404, resp.StatusCode)
	require.Empty(t, body)
	require.Equal(t, "HTTP/1.1 404 NOT FOUND\r\nContent-Length: 0\r\n\r\n", client.Written())
}

func TestErrors(t *testing.T) {
	server := newServer(t, newFS(t, site))

	for _, tc := range []struct {
		Name    string
		Request string
		Code    int
	}{
		{"unsupported method", "BREW / HTTP/1.1\r\n\r\n", 501},
		{"malformed status line", "GET /\r\n\r\n", 500},
		{"invalid path", "GET index HTTP/1.1\r\n\r\n", 500},
		{"invalid version", "GET / HTTP/1\r\n\r\n", 500},
		{"unsupported version", "GET / HTTP/1.0\r\n\r\n", 505},
		{"empty first line", "\r\nGET / HTTP/1.1\r\n\r\n", 500},
		{"nothing at all", "", 500},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			var data [][]byte
			if len(tc.Request) > 0 {
				data = append(data, []byte(tc.Request))
			}

			client, resp, body := serve(t, server, data...)
			require.Equal(t, tc.Code, resp.StatusCode)
			require.Empty(t, body)
			require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.1 "))
		})
	}

	t.Run("bad status line is answered without reading the headers", func(t *testing.T) {
		client, resp, _ := serve(t, server,
			[]byte("BREW / HTTP/1.1\r\n"),
			[]byte("Host: localhost\r\n"),
			[]byte("\r\n"),
		)
		require.Equal(t, 501, resp.StatusCode)
		require.Equal(t, 1, client.Reads())
	})

	t.Run("too large head", func(t *testing.T) {
		huge := "GET /" + strings.Repeat("a", config.Default().NET.RequestHeadSize.Maximal) + " HTTP/1.1\r\n\r\n"
		_, resp, _ := serve(t, server, disperse(huge, 4096)...)
		require.Equal(t, int(status.CodeOf(status.ErrHeadTooLarge)), resp.StatusCode)
	})

	t.Run("failed write still closes the connection", func(t *testing.T) {
		client := dummy.NewMockClient([]byte("GET / HTTP/1.1\r\n\r\n")).FailWrites()
		require.NotPanics(t, func() {
			server.Run(client)
		})
		require.True(t, client.Closed())
		require.Empty(t, client.Written())
	})
}

func TestNilLogger(t *testing.T) {
	server := newServer(t, newFS(t, site), WithLogger(nil))
	require.NotPanics(t, func() {
		_, resp, _ := serve(t, server, []byte("BREW / HTTP/1.1\r\n\r\n"))
		require.Equal(t, 501, resp.StatusCode)
	})
}

func TestHandle(t *testing.T) {
	server := newServer(t, newFS(t, site))
	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		server.Handle(serverConn)
		close(done)
	}()

	_, err := clientConn.Write([]byte("GET /about HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	resp, err := stdhttp.ReadResponse(bufio.NewReader(clientConn), nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "about us", string(body))

	<-done
	require.NoError(t, clientConn.Close())
}

func TestTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	recorder := tracetest.NewSpanRecorder()
	server := newServer(t, newFS(t, site),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
		WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))),
	)

	serve(t, server, []byte("GET / HTTP/1.1\r\n\r\n"))
	serve(t, server, []byte("GET /nope HTTP/1.1\r\n\r\n"))
	serve(t, server, []byte("GET /nope HTTP/1.1\r\n\r\n"))
	serve(t, server, []byte("BREW / HTTP/1.1\r\n\r\n"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := map[string]int64{}
	for _, point := range sum.DataPoints {
		value, _ := point.Attributes.Value("status")
		byStatus[value.AsString()] += point.Value
	}

	require.Equal(t, map[string]int64{"200": 1, "404": 2, "501": 1}, byStatus)

	spans := recorder.Ended()
	require.Len(t, spans, 4)
	for _, span := range spans {
		require.Equal(t, "pages.request", span.Name())
	}
}
