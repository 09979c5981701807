// Package http serves exactly one request per connection: it reads the request head,
// resolves the page and writes the response back before closing the connection.
package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/pages/config"
	"github.com/indigo-web/pages/http"
	"github.com/indigo-web/pages/http/proto"
	"github.com/indigo-web/pages/http/status"
	"github.com/indigo-web/pages/internal/pages"
	"github.com/indigo-web/pages/internal/parser/http1"
	"github.com/indigo-web/pages/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/indigo-web/pages/internal/server/http"
	connIDLength        = 12
)

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(s *Server) {
		s.meterProvider = provider
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = provider
	}
}

type Server struct {
	cfg            config.NET
	pages          *pages.Resolver
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	responses      metric.Int64Counter
}

func NewServer(cfg config.NET, resolver *pages.Resolver, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:            cfg,
		pages:          resolver,
		logger:         slog.Default(),
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}

	for _, opt := range opts {
		opt(s)
	}

	responses, err := s.meterProvider.Meter(instrumentationName).Int64Counter(
		"server.responses",
		metric.WithDescription("Responses written, by status code"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	s.responses = responses
	s.tracer = s.tracerProvider.Tracer(instrumentationName)

	return s, nil
}

// Handle wraps a freshly accepted connection and serves it.
func (s *Server) Handle(conn net.Conn) {
	s.Run(transport.NewClient(conn, s.cfg.ReadTimeout, make([]byte, s.cfg.ReadBufferSize)))
}

// Run serves a single request and closes the client afterwards, whatever happened.
func (s *Server) Run(client transport.Client) {
	logger := s.logger.With("conn", uniuri.NewLen(connIDLength))
	if remote := client.Remote(); remote != nil {
		logger = logger.With("remote", remote.String())
	}

	ctx, span := s.tracer.Start(context.Background(), "pages.request",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	response := s.HandleRequest(ctx, client, logger)

	code := strconv.Itoa(int(response.Code))
	span.SetAttributes(attribute.Int("http.response.status_code", int(response.Code)))
	if status.IsServerError(response.Code) {
		span.SetStatus(codes.Error, string(status.Text(response.Code)))
	}

	if _, err := client.Write(response.Serialize(make([]byte, 0, response.Len()))); err != nil {
		// the connection is going to be closed anyway, nothing else can be done
		span.RecordError(err)
		logger.Error("an error has occurred when writing the response", "status", code, "error", err)
	}

	s.responses.Add(ctx, 1, metric.WithAttributes(attribute.String("status", code)))

	if err := client.Close(); err != nil {
		logger.Debug("an error has occurred when closing the connection", "error", err)
	}
}

// HandleRequest drives the request through its states and returns the response that
// must be written. It never writes anything by itself.
func (s *Server) HandleRequest(ctx context.Context, client transport.Client, logger *slog.Logger) http.Response {
	var (
		lines    = newLineReader(client, s.cfg.RequestHeadSize.Default, s.cfg.RequestHeadSize.Maximal)
		state    = eReadStatusLine
		request  http.Request
		line     string
		page     string
		fallback bool
		headers  int
		err      error
	)

	span := trace.SpanFromContext(ctx)

	for {
		switch state {
		case eReadStatusLine:
			line, err = lines.Next()
			switch {
			case err == nil && len(line) > 0:
				state = eParse
			case err == nil, errors.Is(err, io.EOF):
				logger.Debug("client sent no request")
				return s.onError(status.ErrEmptyRequest, logger)
			default:
				return s.onError(err, logger)
			}
		case eParse:
			request, err = http1.Parse(line)
			if err != nil {
				return s.onError(err, logger)
			}

			span.SetAttributes(
				attribute.String("http.request.method", request.Method.String()),
				attribute.String("url.path", request.Path),
				attribute.String("network.protocol.version", request.Proto.String()),
			)
			state = eReadHeaders
		case eReadHeaders:
			line, err = lines.Next()
			switch {
			case err == nil && len(line) > 0:
				// headers are accepted but never interpreted
				headers++
			case err == nil, errors.Is(err, io.EOF):
				logger.Debug("request head is read", "method", request.Method, "path", request.Path, "headers", headers)
				state = eResolve
			default:
				return s.onError(err, logger)
			}
		case eResolve:
			page, err = s.pages.Resolve(request.Path)
			if err != nil {
				logger.Info("rejected request path", "path", request.Path)
				state = eFallback
				break
			}

			state = eLoad
		case eLoad:
			body, err := s.pages.Load(page)
			switch {
			case err == nil && fallback:
				return http.NewResponse(request.Proto, status.NotFound, body)
			case err == nil:
				return http.NewResponse(request.Proto, status.OK, body)
			case fallback:
				logger.Warn("not-found page is missing", "page", page)
				return http.NewResponse(request.Proto, status.NotFound, nil)
			default:
				state = eFallback
			}
		case eFallback:
			fallback = true
			page = s.pages.NotFoundPage()
			state = eLoad
		}
	}
}

func (s *Server) onError(err error, logger *slog.Logger) http.Response {
	code := status.CodeOf(err)
	logger.Info("request is rejected", "status", code, "error", err)

	return http.NewResponse(proto.HTTP11, code, nil)
}
