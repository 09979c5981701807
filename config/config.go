package config

import (
	"io"
	"os"
	"time"

	json "github.com/json-iterator/go"
)

type (
	PoolSize int

	NETRequestHeadSize struct {
		Default, Maximal int
	}
)

type (
	Pool struct {
		// Size is the number of workers handling connections. Must be at least 1.
		Size PoolSize
	}

	NET struct {
		// Addr is the address the server binds to. Both host and port are optional:
		// host defaults to the loopback interface and port to 8000.
		Addr string
		// ReadBufferSize is the size of the buffer used to read from the socket.
		ReadBufferSize int
		// RequestHeadSize limits the status line and the header lines together.
		// Default is the initial capacity of the line buffer, Maximal is the hard limit.
		RequestHeadSize NETRequestHeadSize
		// ReadTimeout is a deadline for reading the whole request. Zero disables it, so
		// a silent client may hold a worker for as long as it wants.
		ReadTimeout time.Duration `test:"nullable"`
	}

	Pages struct {
		// Root is the directory pages are served from. Nothing outside of it is reachable.
		Root string
		// Index is the page served on "/".
		Index string
		// Extension is appended to every other requested path.
		Extension string
		// NotFound is the page served with 404 NOT FOUND when the requested one is missing.
		NotFound string
	}

	Telemetry struct {
		// ServiceName is reported to the collector as service.name.
		ServiceName string
		// OTLPEndpoint is a host:port of the OTLP gRPC collector. If empty, logs go to stderr
		// and neither metrics nor traces are exported.
		OTLPEndpoint string `test:"nullable"`
		// Insecure disables TLS towards the collector.
		Insecure bool `test:"nullable"`
	}
)

// Config holds every setting of the server.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because a zero value isn't a valid setting for most of the fields.
type Config struct {
	Pool      Pool
	NET       NET
	Pages     Pages
	Telemetry Telemetry
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Pool: Pool{
			Size: 4,
		},
		NET: NET{
			Addr:           "127.0.0.1:8000",
			ReadBufferSize: 4 * 1024,
			RequestHeadSize: NETRequestHeadSize{
				Default: 512,
				// headers are never interpreted, so 16kb is fairly tolerant
				Maximal: 16 * 1024,
			},
		},
		Pages: Pages{
			Root:      "./src/pages",
			Index:     "index.html",
			Extension: ".html",
			NotFound:  "404.html",
		},
		Telemetry: Telemetry{
			ServiceName: "pages",
		},
	}
}

// Load decodes a JSON document over the defaults, so only the fields worth overriding
// must be present.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}

	return cfg, nil
}

func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	return Load(file)
}
