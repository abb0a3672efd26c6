package storage

import (
	"bytes"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

// Supabase persists generated audio in a storage bucket and episode
// metadata in the podcasts table.
type Supabase struct {
	client *supabase.Client
	bucket string
}

func New(config Config) (*Supabase, error) {
	client, err := supabase.NewClient(config.URL, config.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &Supabase{client: client, bucket: config.Bucket}, nil
}

// UploadAudio stores an mp3 under the given key and returns its public URL.
func (s *Supabase) UploadAudio(key string, data []byte) (string, error) {
	_, err := s.client.Storage.UploadFile(s.bucket, key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to upload to Supabase: %w", err)
	}
	return s.client.Storage.GetPublicUrl(s.bucket, key).SignedURL, nil
}

// PodcastRow mirrors the podcasts table.
type PodcastRow struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	SourcePaper  string `json:"source_paper"`
	SegmentCount int    `json:"segment_count"`
	HostVoiceID  string `json:"host_voice_id"`
	ExpertVoice  string `json:"expert_voice_id"`
}

// SavePodcast records episode metadata.
func (s *Supabase) SavePodcast(row PodcastRow) error {
	_, _, err := s.client.From("podcasts").Insert(row, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to save podcast: %w", err)
	}
	return nil
}
