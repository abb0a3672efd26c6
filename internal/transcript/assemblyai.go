package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.assemblyai.com"

// AssemblyAIClient transcribes recorded audio through the AssemblyAI file
// API: upload, create transcript, poll until done.
type AssemblyAIClient struct {
	HTTPClient   *http.Client
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
}

func NewAssemblyAIClient(apiKey string) *AssemblyAIClient {
	return &AssemblyAIClient{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		APIKey:       apiKey,
		BaseURL:      defaultBaseURL,
		PollInterval: time.Second,
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe uploads the audio bytes and waits for the transcript text.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("assemblyai api key missing")
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("assemblyai: empty audio")
	}

	audioURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", err
	}
	id, err := c.createTranscript(ctx, audioURL)
	if err != nil {
		return "", err
	}

	for {
		tr, err := c.getTranscript(ctx, id)
		if err != nil {
			return "", err
		}
		switch tr.Status {
		case "completed":
			return tr.Text, nil
		case "error":
			return "", fmt.Errorf("assemblyai transcript failed: %s", tr.Error)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

func (c *AssemblyAIClient) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var ur uploadResponse
	if err := c.do(req, &ur); err != nil {
		return "", fmt.Errorf("assemblyai upload: %w", err)
	}
	if ur.UploadURL == "" {
		return "", fmt.Errorf("assemblyai upload: empty upload_url")
	}
	return ur.UploadURL, nil
}

func (c *AssemblyAIClient) createTranscript(ctx context.Context, audioURL string) (string, error) {
	body, _ := json.Marshal(transcriptRequest{AudioURL: audioURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var tr transcriptResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("assemblyai create transcript: %w", err)
	}
	if tr.ID == "" {
		return "", fmt.Errorf("assemblyai create transcript: empty id")
	}
	return tr.ID, nil
}

func (c *AssemblyAIClient) getTranscript(ctx context.Context, id string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.APIKey)

	var tr transcriptResponse
	if err := c.do(req, &tr); err != nil {
		return nil, fmt.Errorf("assemblyai poll transcript: %w", err)
	}
	return &tr, nil
}

func (c *AssemblyAIClient) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
