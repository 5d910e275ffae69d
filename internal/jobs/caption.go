package jobs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"picvault/internal/config"
	"picvault/internal/store"
)

const captionPrompt = "Describe this image in one concise sentence."

// Captioner generates short image descriptions through an OpenAI-compatible
// chat completions endpoint.
type Captioner struct {
	cfg    config.Caption
	store  *store.Store
	client *http.Client
}

// NewCaptioner builds a Captioner from caption settings.
func NewCaptioner(cfg config.Caption, s *store.Store) *Captioner {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Captioner{
		cfg:    cfg,
		store:  s,
		client: &http.Client{Timeout: timeout},
	}
}

// Caption requests a description of the original for sha256 and stores it.
func (c *Captioner) Caption(ctx context.Context, sha256 string) error {
	if !c.cfg.Enabled || c.cfg.APIKey == "" {
		return errors.New("captioning is not configured")
	}

	srcPath, err := c.store.FindOriginalPath(ctx, sha256)
	if err != nil {
		return err
	}
	if srcPath == "" {
		return fmt.Errorf("no stored original for hash %s", sha256)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read original %s: %w", srcPath, err)
	}

	caption, err := c.request(ctx, dataURL(srcPath, data))
	if err != nil {
		return err
	}
	return c.store.SetEnrichment(ctx, sha256, store.FieldCaption, caption)
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Captioner) request(ctx context.Context, imageDataURL string) (string, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: captionPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}},
			},
		}},
		MaxTokens: 120,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal caption request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call caption endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read caption response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode caption response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("caption response contained no choices")
	}
	caption := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if caption == "" {
		return "", errors.New("caption response was empty")
	}
	return caption, nil
}

func dataURL(path string, data []byte) string {
	mimeType := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
