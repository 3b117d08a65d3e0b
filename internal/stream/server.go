package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rviscarra/remote-screen-ws/internal/config"
	"github.com/rviscarra/remote-screen-ws/internal/encoders"
	"github.com/rviscarra/remote-screen-ws/internal/pacer"
	"github.com/rviscarra/remote-screen-ws/internal/rdisplay"
	"github.com/rviscarra/remote-screen-ws/internal/resample"
)

// Server accepts viewer connections and runs one Session per connection.
// Sessions share only the read-only policy.
type Server struct {
	cfg       *config.Config
	display   rdisplay.Service
	encoders  encoders.Service
	codec     encoders.VideoCodec
	sessCfg   SessionConfig
	transport TransportOptions
	upgrader  websocket.Upgrader
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	active   int
	sessions map[uuid.UUID]*Session
}

// NewServer creates a stream server for the given configuration
func NewServer(cfg *config.Config, display rdisplay.Service, enc encoders.Service, logger *slog.Logger) (*Server, error) {
	codec, err := encoders.ParseCodec(cfg.Encoder.Codec)
	if err != nil {
		return nil, err
	}
	if !enc.Supports(codec) {
		return nil, fmt.Errorf("codec %v not available in this build", codec)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		display:  display,
		encoders: enc,
		codec:    codec,
		sessCfg: SessionConfig{
			Scaler:          resample.New(cfg.Stream.MaxDimension, cfg.Stream.ThumbnailSize),
			Pacer:           pacer.New(cfg.Stream.TargetInterval),
			ChangeThreshold: cfg.Stream.ChangeThreshold,
			FrameHeader:     cfg.Stream.FrameHeader,
		},
		transport: TransportOptions{
			SendTimeout:  cfg.Transport.SendTimeout,
			PingInterval: cfg.Transport.PingInterval,
			PingTimeout:  cfg.Transport.PingTimeout,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*Session),
	}, nil
}

// HandleWebSocket upgrades the request and streams the selected screen
// until the session ends. The optional screen query parameter selects the
// display.
func (srv *Server) HandleWebSocket(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.String(http.StatusUpgradeRequired, "websocket upgrade required")
		return
	}

	screenIx := srv.cfg.Capture.Display
	if q := c.Query("screen"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid screen %q", q)
			return
		}
		screenIx = n
	}

	if !srv.admit() {
		c.String(http.StatusServiceUnavailable, "no free stream slots")
		return
	}
	defer srv.release()

	screen, err := rdisplay.SelectScreen(srv.display, screenIx, srv.cfg.Capture.Region.Rect())
	if err != nil {
		srv.logger.Error("can't select screen", "screen", screenIx, "error", err)
		c.String(http.StatusServiceUnavailable, err.Error())
		return
	}
	grabber, err := srv.display.CreateScreenGrabber(screen)
	if err != nil {
		srv.logger.Error("can't create screen grabber", "screen", screen.Index, "error", err)
		c.String(http.StatusServiceUnavailable, err.Error())
		return
	}
	encoder, err := srv.encoders.NewEncoder(srv.codec, srv.cfg.Encoder.Quality)
	if err != nil {
		grabber.Close()
		srv.logger.Error("can't create encoder", "codec", srv.codec, "error", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := srv.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client
		grabber.Close()
		encoder.Close()
		srv.logger.Debug("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	id := uuid.New()
	logger := srv.logger.With("remote", c.Request.RemoteAddr)
	transport := newWSTransport(conn, srv.transport, logger.With("session", id.String()))
	sess := NewSession(id, transport, grabber, encoder, srv.sessCfg, logger)

	srv.register(sess)
	defer srv.unregister(id)

	logger.Info("viewer connected", "session", id.String(), "screen", screen.Index)
	// the session logs its own close reason
	err = sess.Run(srv.ctx)
	if errors.Is(err, ErrSessionClosed) {
		logger.Error("session reused", "session", id.String())
	}
}

// Sessions returns a snapshot of the active sessions, oldest first
func (srv *Server) Sessions() []Stats {
	srv.mu.Lock()
	list := make([]Stats, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		list = append(list, s.Stats())
	}
	srv.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].StartedAt.Before(list[j].StartedAt)
	})
	return list
}

// Shutdown stops admitting viewers, cancels every session and waits for
// them to drain or for ctx to expire
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.mu.Lock()
	srv.closed = true
	srv.mu.Unlock()
	srv.cancel()

	done := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sessions still draining: %w", ctx.Err())
	}
}

func (srv *Server) admit() bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.closed {
		return false
	}
	if limit := srv.cfg.Transport.MaxSessions; limit > 0 && srv.active >= limit {
		return false
	}
	srv.active++
	srv.wg.Add(1)
	return true
}

func (srv *Server) release() {
	srv.mu.Lock()
	srv.active--
	srv.mu.Unlock()
	srv.wg.Done()
}

func (srv *Server) register(s *Session) {
	srv.mu.Lock()
	srv.sessions[s.ID()] = s
	srv.mu.Unlock()
}

func (srv *Server) unregister(id uuid.UUID) {
	srv.mu.Lock()
	delete(srv.sessions, id)
	srv.mu.Unlock()
}
