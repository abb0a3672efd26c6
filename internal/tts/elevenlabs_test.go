package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestElevenLabs_NoKey(t *testing.T) {
	c := NewElevenLabsClient("")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Synthesize(ctx, "hello", "voice"); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestElevenLabs_NoVoice(t *testing.T) {
	c := NewElevenLabsClient("key")
	if _, err := c.Synthesize(context.Background(), "hello", ""); err == nil {
		t.Fatalf("expected error with missing voice id")
	}
}

func TestElevenLabs_Responses(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr bool
	}{
		{"ok", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte{0xff, 0xfb, 0x90}) }, false},
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }, true},
		{"empty_body", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewElevenLabsClient("key")
			c.HTTPClient = &http.Client{Timeout: time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				req.URL.Scheme = "http"
				req.URL.Host = srv.Listener.Addr().String()
				return http.DefaultTransport.RoundTrip(req)
			})}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			audio, err := c.Synthesize(ctx, "hello", "voice")
			if tc.wantErr && err == nil {
				t.Fatalf("expected error; got %d bytes", len(audio))
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
