package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rviscarra/remote-screen-ws/internal/config"
	"github.com/rviscarra/remote-screen-ws/internal/encoders"
	"github.com/rviscarra/remote-screen-ws/internal/rdisplay"
	"github.com/rviscarra/remote-screen-ws/internal/stream"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Capture.Backend = config.BackendSynthetic
	cfg.Stream.TargetInterval = 5 * time.Millisecond

	display, err := rdisplay.NewSyntheticProvider(320, 200)
	if err != nil {
		t.Fatalf("NewSyntheticProvider failed: %v", err)
	}
	srv, err := stream.NewServer(cfg, display, encoders.NewEncoderService(), logger)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	ts := httptest.NewServer(MakeHandler(srv, display, logger))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		ts.Close()
	})
	return ts
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: bad JSON: %v", url, err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestAPI(t)

	var body map[string]string
	getJSON(t, ts.URL+"/healthz", &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health payload %v", body)
	}
}

func TestScreens(t *testing.T) {
	ts := newTestAPI(t)

	var body screensResponse
	getJSON(t, ts.URL+"/api/screens", &body)
	if len(body.Screens) != 1 {
		t.Fatalf("expected one screen, got %d", len(body.Screens))
	}
	s := body.Screens[0]
	if s.Index != 0 || s.Bounds.Width != 320 || s.Bounds.Height != 200 {
		t.Fatalf("unexpected screen %+v", s)
	}
}

func TestSessionsListsConnectedViewer(t *testing.T) {
	ts := newTestAPI(t)

	var body sessionsResponse
	getJSON(t, ts.URL+"/api/sessions", &body)
	if len(body.Sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(body.Sessions))
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	getJSON(t, ts.URL+"/api/sessions", &body)
	if len(body.Sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(body.Sessions))
	}
	sess := body.Sessions[0]
	if sess.State != "streaming" || sess.Sent == 0 || sess.LastSentAt == nil {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.Screen.Bounds.Width != 320 {
		t.Fatalf("unexpected session screen %+v", sess.Screen)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestAPI(t)

	resp, err := http.Get(ts.URL + "/api/nope")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
