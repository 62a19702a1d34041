package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/wudi/glyphkit/editor"
	"github.com/wudi/glyphkit/observability"
)

const defaultPort = 8088

type options struct {
	cfg  editor.Config
	host string
	port int
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "glyphedit: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "glyphedit: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	opts := options{cfg: editor.DefaultConfig()}
	fs := flag.NewFlagSet("glyphedit", flag.ContinueOnError)
	fs.StringVar(&opts.cfg.OutputDir, "o", opts.cfg.OutputDir, "Directory holding glyph PNGs and the mapping")
	fs.StringVar(&opts.cfg.OutputDir, "output-dir", opts.cfg.OutputDir, "Alias for -o")
	fs.StringVar(&opts.cfg.MappingFile, "m", opts.cfg.MappingFile, "Mapping file name inside the output directory")
	fs.StringVar(&opts.cfg.MappingFile, "mapping-json", opts.cfg.MappingFile, "Alias for -m")
	fs.StringVar(&opts.host, "H", "0.0.0.0", "Listen host")
	fs.StringVar(&opts.host, "host", "0.0.0.0", "Alias for -H")
	fs.IntVar(&opts.port, "p", defaultPort, "Listen port")
	fs.IntVar(&opts.port, "port", defaultPort, "Alias for -p")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.port <= 0 || opts.port > 65535 {
		return options{}, fmt.Errorf("invalid port %d", opts.port)
	}
	return opts, nil
}

func run(opts options) error {
	logger := observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	fi, err := os.Stat(opts.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("output dir %s is not a directory", opts.cfg.OutputDir)
	}

	srv := editor.New(opts.cfg, editor.WithLogger(logger))
	if !srv.Store().Exists() {
		logger.Warn("mapping file not found; GET /api/data returns 404 until the first save",
			observability.String("path", srv.Store().Path()))
	}

	addr := net.JoinHostPort(opts.host, strconv.Itoa(opts.port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("editor listening", observability.String("addr", "http://"+addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
