package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/podaskai/podask/internal/config"
	"github.com/podaskai/podask/internal/httpserver"
	"github.com/podaskai/podask/internal/llm"
	"github.com/podaskai/podask/internal/papers"
	"github.com/podaskai/podask/internal/session"
	"github.com/podaskai/podask/internal/storage"
	"github.com/podaskai/podask/internal/transcript"
	"github.com/podaskai/podask/internal/tts"
	"github.com/podaskai/podask/internal/voice"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		log.Fatalf("failed to create audio dir %s: %v", cfg.AudioDir, err)
	}

	handlers := httpserver.Handlers{
		Sessions: session.NewManager(session.NewStore(), voice.NewPicker(nil), nil),
		AudioDir: cfg.AudioDir,
	}

	search := &papers.SearchService{
		Arxiv:   papers.NewArxivClient(),
		Scholar: papers.NewSemanticScholarClient(cfg.SemanticScholarKey),
	}
	handlers.Search = search

	if cfg.GeminiKey != "" {
		gemini, err := llm.NewGeminiClient(context.Background(), cfg.GeminiKey, cfg.GeminiModelID)
		if err != nil {
			log.Fatalf("failed to create Gemini client: %v", err)
		}
		defer gemini.Close()
		handlers.Script = gemini
		search.LLM = gemini
	} else {
		log.Printf("Warning: running without Gemini; synthesis and ranking disabled")
	}

	if cfg.ElevenLabsKey != "" {
		handlers.TTS = tts.NewElevenLabsClient(cfg.ElevenLabsKey)
	}
	if cfg.AssemblyAIKey != "" {
		handlers.STT = transcript.NewAssemblyAIClient(cfg.AssemblyAIKey)
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		store, err := storage.New(storage.Config{
			URL:            cfg.SupabaseURL,
			ServiceRoleKey: cfg.SupabaseServiceKey,
			Bucket:         cfg.SupabaseBucket,
		})
		if err != nil {
			log.Fatalf("failed to create Supabase client: %v", err)
		}
		handlers.Audio = store
	}

	e := httpserver.New()
	handlers.Register(e)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Drop sessions nobody has touched in a while
	stopEvict := make(chan struct{})
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := handlers.Sessions.Store().EvictIdle(2 * time.Hour); n > 0 {
					log.Printf("evicted %d idle sessions", n)
				}
			case <-stopEvict:
				return
			}
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}
	close(stopEvict)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
