package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rviscarra/remote-screen-ws/internal/encoders"
	"github.com/rviscarra/remote-screen-ws/internal/motion"
	"github.com/rviscarra/remote-screen-ws/internal/pacer"
	"github.com/rviscarra/remote-screen-ws/internal/rdisplay"
	"github.com/rviscarra/remote-screen-ws/internal/resample"
)

// State is the lifecycle position of a Session. Transitions only move
// forward.
type State int32

const (
	StateHandshaking State = iota
	StateStreaming
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SessionConfig holds the read-only policy shared by sessions
type SessionConfig struct {
	Scaler          *resample.Downscaler
	Pacer           *pacer.Pacer
	ChangeThreshold float64
	FrameHeader     bool
}

// Stats is a point-in-time snapshot of a session
type Stats struct {
	ID           uuid.UUID
	State        State
	Screen       rdisplay.Screen
	StartedAt    time.Time
	LastSentAt   time.Time
	Captured     uint64
	Sent         uint64
	Suppressed   uint64
	EncodeErrors uint64
	BytesSent    uint64
}

// Session streams one screen to one viewer. It owns its grabber, encoder
// and transport and releases all three when it ends.
type Session struct {
	id        uuid.UUID
	transport Transport
	grabber   rdisplay.ScreenGrabber
	encoder   encoders.Encoder
	cfg       SessionConfig
	logger    *slog.Logger

	state     atomic.Int32
	startedAt time.Time

	// Only touched by the Run goroutine
	current  *image.RGBA
	previous *image.RGBA
	seq      uint32
	msg      []byte

	captured     atomic.Uint64
	sent         atomic.Uint64
	suppressed   atomic.Uint64
	encodeErrors atomic.Uint64
	bytesSent    atomic.Uint64
	lastSentAt   atomic.Int64
}

// NewSession creates a session in the Handshaking state
func NewSession(id uuid.UUID, transport Transport, grabber rdisplay.ScreenGrabber, encoder encoders.Encoder, cfg SessionConfig, logger *slog.Logger) *Session {
	s := &Session{
		id:        id,
		transport: transport,
		grabber:   grabber,
		encoder:   encoder,
		cfg:       cfg,
		logger:    logger.With("session", id.String()),
		startedAt: time.Now(),
	}
	s.state.Store(int32(StateHandshaking))
	return s
}

// ID returns the session id
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Stats returns a snapshot of the session counters
func (s *Session) Stats() Stats {
	st := Stats{
		ID:           s.id,
		State:        s.State(),
		Screen:       *s.grabber.Screen(),
		StartedAt:    s.startedAt,
		Captured:     s.captured.Load(),
		Sent:         s.sent.Load(),
		Suppressed:   s.suppressed.Load(),
		EncodeErrors: s.encodeErrors.Load(),
		BytesSent:    s.bytesSent.Load(),
	}
	if ns := s.lastSentAt.Load(); ns != 0 {
		st.LastSentAt = time.Unix(0, ns)
	}
	return st
}

// Run streams until the peer leaves, a send fails, capture becomes
// unavailable or ctx is cancelled, then drains the session. It returns nil
// when the viewer or the server ended the session. A session runs once.
func (s *Session) Run(ctx context.Context) (err error) {
	if !s.state.CompareAndSwap(int32(StateHandshaking), int32(StateStreaming)) {
		return ErrSessionClosed
	}
	defer func() {
		s.drain(err)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.transport.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("session streaming", "screen", s.grabber.Screen().Index, "bounds", s.grabber.Screen().Bounds)

	for {
		start := time.Now()
		if err := s.cycle(); err != nil {
			if errors.Is(err, ErrPeerClosed) {
				return nil
			}
			return err
		}
		// the only cancellation point: one cycle plus in-flight I/O
		if err := s.cfg.Pacer.Wait(ctx, time.Since(start)); err != nil {
			return nil
		}
	}
}

// cycle runs capture, downscale, detect and, for significant frames,
// encode and send. Encode failures only skip the current frame.
func (s *Session) cycle() error {
	frame, err := s.grabber.Capture()
	if err != nil {
		return err
	}
	s.captured.Add(1)

	img := s.cfg.Scaler.Transmission(frame.Image)
	if s.current == nil {
		s.current = s.cfg.Scaler.NewThumbnail()
	}
	s.cfg.Scaler.Thumbnail(s.current, img)

	significant := motion.IsSignificantChange(s.current, s.previous, s.cfg.ChangeThreshold)

	// the baseline is the last captured frame, sent or not
	if s.previous == nil {
		s.previous = s.cfg.Scaler.NewThumbnail()
	}
	s.current, s.previous = s.previous, s.current

	if !significant {
		s.suppressed.Add(1)
		return nil
	}

	payload, err := s.encoder.Encode(img)
	if err != nil {
		s.encodeErrors.Add(1)
		s.logger.Error("frame skipped", "error", err, "size", img.Bounds().Size())
		return nil
	}

	if s.cfg.FrameHeader {
		s.msg = AppendHeader(s.msg[:0], FrameHeader{Seq: s.seq, CapturedAt: frame.CapturedAt})
		s.msg = append(s.msg, payload...)
		payload = s.msg
	}

	if err := s.transport.Send(payload); err != nil {
		return err
	}
	s.seq++
	s.sent.Add(1)
	s.bytesSent.Add(uint64(len(payload)))
	s.lastSentAt.Store(time.Now().UnixNano())
	return nil
}

func (s *Session) drain(reason error) {
	s.state.Store(int32(StateDraining))

	if err := s.grabber.Close(); err != nil {
		s.logger.Warn("grabber close failed", "error", err)
	}
	if err := s.encoder.Close(); err != nil {
		s.logger.Warn("encoder close failed", "error", err)
	}
	if err := s.transport.Close(); err != nil {
		s.logger.Debug("transport close failed", "error", err)
	}
	s.current, s.previous, s.msg = nil, nil, nil

	s.state.Store(int32(StateClosed))

	attrs := []any{
		"duration", time.Since(s.startedAt),
		"captured", s.captured.Load(),
		"sent", s.sent.Load(),
		"suppressed", s.suppressed.Load(),
		"encode_errors", s.encodeErrors.Load(),
		"bytes_sent", s.bytesSent.Load(),
	}
	switch {
	case reason == nil:
		if terr := s.transport.Err(); terr != nil {
			attrs = append(attrs, "reason", terr)
		}
		s.logger.Info("session closed", attrs...)
	case errors.Is(reason, rdisplay.ErrCaptureUnavailable):
		s.logger.Warn("session closed, capture unavailable", append(attrs, "error", reason)...)
	default:
		s.logger.Warn("session closed", append(attrs, "error", reason)...)
	}
}
