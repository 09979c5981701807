package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indigo-web/pages"
	"github.com/indigo-web/pages/config"
	"github.com/indigo-web/pages/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var (
		configFile = flag.String("config", "", "Path to a JSON config file")
		addr       = flag.String("addr", "", "Address to listen on, overrides the config")
		root       = flag.String("root", "", "Directory pages are served from, overrides the config")
		workers    = flag.Int("workers", 0, "Number of workers, overrides the config")
	)

	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	if len(*addr) > 0 {
		cfg.NET.Addr = *addr
	}

	if len(*root) > 0 {
		cfg.Pages.Root = *root
	}

	if *workers != 0 {
		cfg.Pool.Size = config.PoolSize(*workers)
	}

	if err = run(cfg); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if len(path) == 0 {
		return config.Default(), nil
	}

	return config.LoadFile(path)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, os.Stderr)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	app := pages.New(cfg,
		pages.WithLogger(tel.Logger),
		pages.WithMeterProvider(tel.MeterProvider),
		pages.WithTracerProvider(tel.TracerProvider),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.NET.Addr, func(boundAddr string) {
			fmt.Printf("Serving %s on http://%s\n", cfg.Pages.Root, boundAddr)
		})
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, pages.ErrBind) {
			return fmt.Errorf("cannot start: %w", err)
		}

		return err
	case <-ctx.Done():
		stop()
	}

	app.Stop()

	return <-errCh
}
