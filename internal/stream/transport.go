package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	closeWriteTimeout = time.Second
	maxInboundMessage = 64 * 1024
)

// TransportOptions bounds the websocket I/O of one session
type TransportOptions struct {
	SendTimeout  time.Duration
	PingInterval time.Duration
	PingTimeout  time.Duration
}

// wsTransport sends frames as binary websocket messages. Liveness is driven
// by ping/pong, never by frame cadence: a still screen sends nothing for
// long stretches.
type wsTransport struct {
	conn   *websocket.Conn
	opts   TransportOptions
	logger *slog.Logger

	done     chan struct{}
	doneOnce sync.Once
	err      error
	errMu    sync.Mutex

	closeOnce sync.Once
}

func newWSTransport(conn *websocket.Conn, opts TransportOptions, logger *slog.Logger) *wsTransport {
	t := &wsTransport{
		conn:   conn,
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}

	conn.SetReadLimit(maxInboundMessage)
	conn.SetReadDeadline(time.Now().Add(opts.PingTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(opts.PingTimeout))
	})

	go t.readLoop()
	go t.pingLoop()
	return t
}

// readLoop drains inbound messages so control frames get processed, and
// notices when the peer goes away
func (t *wsTransport) readLoop() {
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			t.finish(fmt.Errorf("%w: %v", ErrPeerClosed, err))
			return
		}
		t.conn.SetReadDeadline(time.Now().Add(t.opts.PingTimeout))
	}
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(t.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(t.opts.SendTimeout)
			if err := t.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				t.finish(fmt.Errorf("%w: ping: %v", ErrPeerClosed, err))
				return
			}
		}
	}
}

func (t *wsTransport) Send(payload []byte) error {
	select {
	case <-t.done:
		return t.Err()
	default:
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.opts.SendTimeout))
	if err := t.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w (%w): %v", ErrSendFailed, ErrSendTimeout, err)
		} else {
			err = fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		t.finish(err)
		return err
	}
	return nil
}

func (t *wsTransport) Done() <-chan struct{} {
	return t.done
}

func (t *wsTransport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}

// Close sends a close frame on a best-effort basis and closes the
// connection, which also stops the read loop
func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); werr != nil {
			t.logger.Debug("close frame not sent", "error", werr)
		}
		err = t.conn.Close()
		t.finish(fmt.Errorf("%w: closed locally", ErrPeerClosed))
	})
	return err
}

func (t *wsTransport) finish(err error) {
	t.doneOnce.Do(func() {
		t.errMu.Lock()
		t.err = err
		t.errMu.Unlock()
		close(t.done)
	})
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
