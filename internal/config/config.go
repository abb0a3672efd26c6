package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress        string
	GeminiKey          string
	GeminiModelID      string
	ElevenLabsKey      string
	AssemblyAIKey      string
	SemanticScholarKey string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
	AudioDir           string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - script synthesis, ranking and Q&A will not work")
	}
	geminiModel := os.Getenv("GEMINI_MODEL_ID")
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash"
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Println("Warning: ELEVENLABS_API_KEY not set - audio rendering will not work")
	}

	assemblyKey := os.Getenv("ASSEMBLYAI_API_KEY")
	if assemblyKey == "" {
		log.Println("Warning: ASSEMBLYAI_API_KEY not set - voice questions will not work")
	}

	// Optional; Semantic Scholar works unauthenticated at a lower rate limit.
	scholarKey := os.Getenv("SEMANTIC_SCHOLAR_API_KEY")

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		log.Println("Warning: SUPABASE_URL / SUPABASE_SERVICE_ROLE_KEY not set - audio stays local only")
	}
	bucket := os.Getenv("SUPABASE_BUCKET")
	if bucket == "" {
		bucket = "podcast-audio"
	}

	audioDir := os.Getenv("AUDIO_DIR")
	if audioDir == "" {
		audioDir = "./audio_output"
	}

	log.Printf("config: HTTP_ADDRESS=%s GEMINI_MODEL_ID=%s AUDIO_DIR=%s", addr, geminiModel, audioDir)
	return Config{
		HTTPAddress:        addr,
		GeminiKey:          geminiKey,
		GeminiModelID:      geminiModel,
		ElevenLabsKey:      elevenKey,
		AssemblyAIKey:      assemblyKey,
		SemanticScholarKey: scholarKey,
		SupabaseURL:        supabaseURL,
		SupabaseServiceKey: supabaseKey,
		SupabaseBucket:     bucket,
		AudioDir:           audioDir,
	}
}
