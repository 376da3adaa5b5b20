package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finedb/internal/api"
	"finedb/internal/common"
	"finedb/internal/config"
	"finedb/internal/db"
)

// errWriterStopped is returned when the writer stops without being asked to.
var errWriterStopped = errors.New("writer stopped unexpectedly")

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dir := flag.String("dir", "", "data directory (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(2)
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dir != "" {
		cfg.Dir = *dir
	}
	common.LoggingEnabled = cfg.Logging

	os.Exit(run(cfg))
}

func run(cfg config.Config) int {
	d, err := db.Open(cfg.Options()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(d),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		common.Logf("listening on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-d.Done():
			return errWriterStopped
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	serveErr := g.Wait()

	// Producers are gone; drain whatever they queued.
	result := d.Shutdown()
	if !result.Clean() {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", result)
		return 1
	}
	if err := d.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", err)
		return 1
	}
	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", serveErr)
		return 1
	}

	common.Logf("%s\n", result)
	return 0
}
