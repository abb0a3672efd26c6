package httpserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type liveEvent struct {
	Type     string `json:"type"`
	Speaker  string `json:"speaker,omitempty"`
	Text     string `json:"text,omitempty"`
	Segment  int    `json:"segment,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

// live streams the current segment over a websocket: one text frame per
// dialogue line, followed by an mp3 binary frame when TTS is available.
// The client sends "next" to advance to the following segment.
func (h Handlers) live(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.Sessions.GetState(id); err != nil {
		return h.fail(c, err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := c.Request().Context()
	for {
		state, err := h.Sessions.GetState(id)
		if err != nil {
			writeEvent(ws, liveEvent{Type: "error", Text: err.Error()})
			return nil
		}
		if state.IsFinished || state.CurrentSegment == nil {
			writeEvent(ws, liveEvent{Type: "finished", Finished: true})
			return nil
		}

		seg := state.CurrentSegment
		voices, err := h.Sessions.Voices(id)
		if err != nil {
			writeEvent(ws, liveEvent{Type: "error", Text: err.Error()})
			return nil
		}
		for _, line := range seg.Dialogue {
			if !writeEvent(ws, liveEvent{Type: "line", Speaker: line.Speaker, Text: line.Text, Segment: seg.ID}) {
				return nil
			}
			if h.TTS == nil {
				continue
			}
			voiceID := voices.Host
			if line.Speaker == "expert" {
				voiceID = voices.Expert
			}
			audio, err := h.TTS.Synthesize(ctx, line.Text, voiceID)
			if err != nil {
				log.Printf("Live TTS failed for session %s: %v", id, err)
				continue
			}
			if werr := ws.WriteMessage(websocket.BinaryMessage, audio); werr != nil {
				return nil
			}
		}
		if !writeEvent(ws, liveEvent{Type: "segment_end", Segment: seg.ID}) {
			return nil
		}

		_, msg, err := ws.ReadMessage()
		if err != nil {
			return nil
		}
		if string(msg) != "next" {
			return nil
		}
		if _, err := h.Sessions.Advance(id); err != nil {
			writeEvent(ws, liveEvent{Type: "error", Text: err.Error()})
			return nil
		}
	}
}

func writeEvent(ws *websocket.Conn, ev liveEvent) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	return ws.WriteMessage(websocket.TextMessage, payload) == nil
}
