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
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rviscarra/remote-screen-ws/internal/api"
	"github.com/rviscarra/remote-screen-ws/internal/config"
	"github.com/rviscarra/remote-screen-ws/internal/encoders"
	"github.com/rviscarra/remote-screen-ws/internal/rdisplay"
	"github.com/rviscarra/remote-screen-ws/internal/stream"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConfigPath = "remote-screen.yaml"
	shutdownTimeout   = 10 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	listen := flag.String("listen", "", "Listen address, overrides listen.address")
	backend := flag.String("backend", "", "Capture backend (screenshot, synthetic), overrides capture.backend")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("can't load configuration", "config", *configPath, "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen.Address = *listen
	}
	if *backend != "" {
		cfg.Capture.Backend = *backend
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	if err := run(cfg, logger); err != nil {
		logger.Error("agent stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("agent stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	video, err := newDisplay(cfg.Capture)
	if err != nil {
		return fmt.Errorf("can't init video: %w", err)
	}
	screens, err := video.Screens()
	if err != nil {
		return fmt.Errorf("can't get screens: %w", err)
	}
	for _, s := range screens {
		logger.Info("screen available", "index", s.Index, "bounds", s.Bounds)
	}

	srv, err := stream.NewServer(cfg, video, encoders.NewEncoderService(), logger)
	if err != nil {
		return err
	}

	// bind before serving so an address in use is reported
	ln, err := net.Listen("tcp", cfg.Listen.Address)
	if err != nil {
		return fmt.Errorf("can't listen on %s: %w", cfg.Listen.Address, err)
	}

	httpServer := &http.Server{
		Handler:           api.MakeHandler(srv, video, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting stream server",
			"address", ln.Addr().String(),
			"backend", cfg.Capture.Backend,
			"codec", cfg.Encoder.Codec,
			"max_sessions", cfg.Transport.MaxSessions,
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", shutdownTimeout)

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// hijacked websocket connections are not tracked by the http server
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("stream sessions did not drain", "error", err)
		}
		return httpServer.Shutdown(sctx)
	})

	return g.Wait()
}

func newDisplay(c config.CaptureConfig) (rdisplay.Service, error) {
	switch c.Backend {
	case config.BackendSynthetic:
		return rdisplay.NewSyntheticProvider(c.SyntheticWidth, c.SyntheticHeight)
	default:
		return rdisplay.NewVideoProvider()
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
