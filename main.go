package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"nostr-render/internal/config"
)

type flags struct {
	configPath string
	port       string
	logLevel   string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("nostr-render", flag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", config.PathFromEnv(), "path to the YAML config file (env RENDER_CONFIG)")
	fs.StringVarP(&f.port, "port", "p", "", "listen port, overrides config and PORT")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	if err := fs.Parse(args[1:]); err != nil {
		return flags{}, err
	}
	return f, nil
}

func main() {
	f, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	InitLogger(f.logLevel)

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS env,
	// in which case the runtime default applies.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))

	if err := run(f); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	loader, err := config.NewLoader(f.configPath)
	if err != nil {
		return err
	}
	base := *loader.Config()
	cfg := &base
	if f.port != "" {
		cfg.Server.Port = f.port
	}

	srv, err := NewServer(cfg, nil)
	if err != nil {
		return err
	}

	loader.OnChange(func(next *config.Config) {
		// the listen port cannot change without a restart
		applied := *next
		applied.Server.Port = cfg.Server.Port
		if err := srv.Apply(&applied); err != nil {
			slog.Warn("reloaded config rejected", "error", err)
		}
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config hot reload disabled", "error", err)
	} else {
		defer stopWatch()
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port, "config", f.configPath)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
