package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("GEMINI_MODEL_ID", "")
	os.Setenv("SUPABASE_BUCKET", "")
	os.Setenv("AUDIO_DIR", "")
	cfg := Load()
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.GeminiModelID == "" {
		t.Fatalf("expected default gemini model id")
	}
	if cfg.SupabaseBucket == "" {
		t.Fatalf("expected default supabase bucket")
	}
	if cfg.AudioDir == "" {
		t.Fatalf("expected default audio dir")
	}
}

func TestLoad_RespectsOverrides(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", ":9999")
	os.Setenv("GEMINI_MODEL_ID", "gemini-test")
	defer os.Unsetenv("HTTP_ADDRESS")
	defer os.Unsetenv("GEMINI_MODEL_ID")
	cfg := Load()
	if cfg.HTTPAddress != ":9999" {
		t.Fatalf("expected :9999, got %s", cfg.HTTPAddress)
	}
	if cfg.GeminiModelID != "gemini-test" {
		t.Fatalf("expected gemini-test, got %s", cfg.GeminiModelID)
	}
}
