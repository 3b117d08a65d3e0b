package api

import (
	"time"

	"github.com/rviscarra/remote-screen-ws/internal/rdisplay"
	"github.com/rviscarra/remote-screen-ws/internal/stream"
)

type rectPayload struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type screenPayload struct {
	Index  int         `json:"index"`
	Bounds rectPayload `json:"bounds"`
}

type screensResponse struct {
	Screens []screenPayload `json:"screens"`
}

type sessionPayload struct {
	ID           string        `json:"id"`
	State        string        `json:"state"`
	Screen       screenPayload `json:"screen"`
	StartedAt    time.Time     `json:"started_at"`
	LastSentAt   *time.Time    `json:"last_sent_at,omitempty"`
	Captured     uint64        `json:"captured"`
	Sent         uint64        `json:"sent"`
	Suppressed   uint64        `json:"suppressed"`
	EncodeErrors uint64        `json:"encode_errors"`
	BytesSent    uint64        `json:"bytes_sent"`
}

type sessionsResponse struct {
	Sessions []sessionPayload `json:"sessions"`
}

func newScreenPayload(s rdisplay.Screen) screenPayload {
	return screenPayload{
		Index: s.Index,
		Bounds: rectPayload{
			X:      s.Bounds.Min.X,
			Y:      s.Bounds.Min.Y,
			Width:  s.Bounds.Dx(),
			Height: s.Bounds.Dy(),
		},
	}
}

func newSessionPayload(st stream.Stats) sessionPayload {
	p := sessionPayload{
		ID:           st.ID.String(),
		State:        st.State.String(),
		Screen:       newScreenPayload(st.Screen),
		StartedAt:    st.StartedAt,
		Captured:     st.Captured,
		Sent:         st.Sent,
		Suppressed:   st.Suppressed,
		EncodeErrors: st.EncodeErrors,
		BytesSent:    st.BytesSent,
	}
	if !st.LastSentAt.IsZero() {
		last := st.LastSentAt
		p.LastSentAt = &last
	}
	return p
}
