package stream

import (
	"errors"
)

var (
	// ErrSendFailed is returned when a frame could not be written to the peer
	ErrSendFailed = errors.New("send failed")
	// ErrSendTimeout is returned when a send did not complete within the send
	// timeout; it is handled like a disconnect
	ErrSendTimeout = errors.New("send timeout")
	// ErrPeerClosed is returned when the peer went away or stopped answering
	// keepalive pings
	ErrPeerClosed = errors.New("peer closed")
	// ErrSessionClosed is returned when Run is called on a session that
	// already ran
	ErrSessionClosed = errors.New("session closed")
)

// Transport is one viewer connection. Send is only ever called from the
// session loop; Done and Close may be used from any goroutine.
type Transport interface {
	// Send delivers one payload as a single message, bounded by the send
	// timeout
	Send(payload []byte) error
	// Done is closed once the peer is gone
	Done() <-chan struct{}
	// Err returns why Done was closed, nil while open
	Err() error
	Close() error
}
