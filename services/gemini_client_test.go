package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeminiClient(serverURL string, models ...string) *GeminiClient {
	return &GeminiClient{
		apiKey:     "test-key",
		baseURL:    serverURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		models:     models,
	}
}

func geminiTextResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
}

func TestGenerateNarrative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.RawQuery, "key=test-key")

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "ciclo")

		json.NewEncoder(w).Encode(geminiTextResponse("  Resumo do ciclo.  "))
	}))
	defer server.Close()

	client := newTestGeminiClient(server.URL, "gemini-2.0-flash-001")

	text, err := client.GenerateNarrative(context.Background(), "Resuma o ciclo de avaliação.")
	require.NoError(t, err)
	assert.Equal(t, "Resumo do ciclo.", text)
}

func TestGenerateNarrativeFallsBackToNextModel(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if strings.Contains(r.URL.Path, "gemini-2.0-flash-001") {
			http.Error(w, `{"error":{"code":404,"message":"model not found"}}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(geminiTextResponse("resposta do modelo seguinte"))
	}))
	defer server.Close()

	client := newTestGeminiClient(server.URL, "gemini-2.0-flash-001", "gemini-2.0-flash")

	text, err := client.GenerateNarrative(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "resposta do modelo seguinte", text)
	require.Len(t, requested, 2)
}

func TestGenerateNarrativeAllModelsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestGeminiClient(server.URL, "gemini-2.0-flash-001", "gemini-2.0-flash")

	_, err := client.GenerateNarrative(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all models failed")
}

func TestGenerateNarrativeMissingAPIKey(t *testing.T) {
	client := &GeminiClient{httpClient: http.DefaultClient}

	_, err := client.GenerateNarrative(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestGenerateNarrativeEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	client := newTestGeminiClient(server.URL, "gemini-2.0-flash-001")

	_, err := client.GenerateNarrative(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}
