// Package genai is a minimal HTTP client for the Gemini generateContent
// API. The backend treats its output as untrusted text: callers must parse
// and validate anything returned here before use.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// Config holds the generation settings for a client.
type Config struct {
	APIKey      string
	Model       string
	Endpoint    string
	Timeout     time.Duration
	Temperature float64
	TopP        float64
}

// Client calls the Gemini API for one configured model.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Gemini client. The timeout bounds every generation
// call; a timed-out call surfaces as an ordinary error.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.8
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends one prompt and returns the raw text of the first
// candidate. A non-positive temperature falls back to the configured
// default. The response mime type is pinned to JSON, but nothing about
// the shape of the text is guaranteed.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("genai: no API key configured")
	}

	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      temperature,
			TopP:             c.cfg.TopP,
			ResponseMimeType: "application/json",
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("genai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.Endpoint, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("genai: generation failed (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("genai: decode response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("genai: empty response")
	}

	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}
