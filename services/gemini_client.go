package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// GeminiClient calls the generative-language REST API to produce the insight
// narrative. Models are tried in order until one answers.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	models     []string
}

// NewGeminiClient builds a client from the GEMINI_API_KEY environment
// variable. A missing key surfaces as an error on the first call, not at
// construction, so the server can boot without it.
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		baseURL:    "https://generativelanguage.googleapis.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		models: []string{
			"gemini-2.0-flash-001",
			"gemini-2.0-flash",
			"gemini-2.5-flash",
			"gemini-flash-latest",
		},
	}
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateNarrative sends the prompt and returns the model's text response.
func (g *GeminiClient) GenerateNarrative(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY not configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.3,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, model := range g.models {
		text, err := g.callModel(ctx, model, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func (g *GeminiClient) callModel(ctx context.Context, model string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in response")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("empty response text")
	}
	return text, nil
}
