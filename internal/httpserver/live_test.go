package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func readEvent(t *testing.T, ws *websocket.Conn) liveEvent {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, payload, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("expected text frame, got type %d", kind)
	}
	var ev liveEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode event %q: %v", payload, err)
	}
	return ev
}

func TestLiveFeedStreamsSegments(t *testing.T) {
	h, e := newTestHandlers(t)
	h.TTS = &fakeSpeech{}
	e = New()
	h.Register(e)

	srv := httptest.NewServer(e)
	defer srv.Close()

	created := createTestSession(t, e)
	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) +
		"/api/v1/podcast/session/" + created.SessionID + "/live"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	// Segment 1 has two lines, each followed by a binary audio frame.
	for i := 0; i < 2; i++ {
		ev := readEvent(t, ws)
		if ev.Type != "line" || ev.Segment != 1 {
			t.Fatalf("frame %d: unexpected event %+v", i, ev)
		}
		kind, audio, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read audio: %v", err)
		}
		if kind != websocket.BinaryMessage || len(audio) == 0 {
			t.Fatalf("expected binary audio frame, got type %d len %d", kind, len(audio))
		}
	}
	if ev := readEvent(t, ws); ev.Type != "segment_end" {
		t.Fatalf("expected segment_end, got %+v", ev)
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("next")); err != nil {
		t.Fatalf("write next: %v", err)
	}
	if ev := readEvent(t, ws); ev.Type != "line" || ev.Segment != 2 {
		t.Fatalf("expected segment 2 line, got %+v", ev)
	}
	// Drain segment 2's audio frame and trailer, then walk off the end.
	if _, _, err := ws.ReadMessage(); err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if ev := readEvent(t, ws); ev.Type != "segment_end" {
		t.Fatalf("expected segment_end, got %+v", ev)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte("next")); err != nil {
		t.Fatalf("write next: %v", err)
	}
	if ev := readEvent(t, ws); ev.Type != "finished" || !ev.Finished {
		t.Fatalf("expected finished event, got %+v", ev)
	}
}

func TestLiveFeedUnknownSession(t *testing.T) {
	_, e := newTestHandlers(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/podcast/session/nope/live", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
