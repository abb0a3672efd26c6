package transcript

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTranscribe_NoKey(t *testing.T) {
	c := NewAssemblyAIClient("")
	if _, err := c.Transcribe(context.Background(), []byte{1}); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	c := NewAssemblyAIClient("key")
	if _, err := c.Transcribe(context.Background(), nil); err == nil {
		t.Fatalf("expected error with empty audio")
	}
}

func TestTranscribe_FullFlowWithPolling(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/abc"})
		case r.URL.Path == "/v2/transcript" && r.Method == http.MethodPost:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["audio_url"] != "https://cdn.example/upload/abc" {
				t.Errorf("unexpected audio_url %q", body["audio_url"])
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_1", "status": "queued"})
		case r.URL.Path == "/v2/transcript/tr_1":
			if atomic.AddInt32(&polls, 1) < 2 {
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_1", "status": "processing"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_1", "status": "completed", "text": "what is attention?"})
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	c := NewAssemblyAIClient("key")
	c.BaseURL = srv.URL
	c.PollInterval = 5 * time.Millisecond

	text, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "what is attention?" {
		t.Fatalf("unexpected text %q", text)
	}
	if atomic.LoadInt32(&polls) < 2 {
		t.Fatalf("expected at least 2 polls, got %d", polls)
	}
}

func TestTranscribe_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/u"})
		case r.URL.Path == "/v2/transcript":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_2", "status": "queued"})
		case r.URL.Path == "/v2/transcript/tr_2":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_2", "status": "error", "error": "unsupported codec"})
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	c := NewAssemblyAIClient("key")
	c.BaseURL = srv.URL
	c.PollInterval = time.Millisecond
	if _, err := c.Transcribe(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected transcript error")
	}
}

func TestTranscribe_ContextCancelledWhilePolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/u"})
		case r.URL.Path == "/v2/transcript":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_3", "status": "queued"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr_3", "status": "processing"})
		}
	}))
	defer srv.Close()

	c := NewAssemblyAIClient("key")
	c.BaseURL = srv.URL
	c.PollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if _, err := c.Transcribe(ctx, []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}
